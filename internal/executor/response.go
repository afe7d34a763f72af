package executor

import (
	"encoding/json"
	"fmt"
	"go-toolrouter/pkg/models"
)

var statusMessages = map[int]string{
	400: "Bad Request - Invalid parameters",
	401: "Unauthorized - Authentication required",
	403: "Forbidden - Access denied",
	404: "Not Found - Resource doesn't exist",
	429: "Rate Limit Exceeded - Too many requests",
	500: "Internal Server Error",
	503: "Service Unavailable",
}

func parseResponse(status int, body []byte) models.ExecutionResult {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		data = map[string]any{"raw_response": string(body)}
	}

	res := models.ExecutionResult{
		Success:    status < 400,
		StatusCode: status,
		Data:       data,
	}
	if !res.Success {
		res.Error = errorMessage(status, data)
	}
	return res
}

// errorMessage picks the canned phrase for status and appends the service's own
// error or message field when the body carries one.
func errorMessage(status int, data any) string {
	msg, ok := statusMessages[status]
	if !ok {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return msg
	}
	if v, ok := obj["error"]; ok {
		return fmt.Sprintf("%s: %s", msg, stringify(v))
	}
	if v, ok := obj["message"]; ok {
		return fmt.Sprintf("%s: %s", msg, stringify(v))
	}
	return msg
}
