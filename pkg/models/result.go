package models

// ExecutionResult is the normalised outcome of one tool call. Error is set iff Success is false.
type ExecutionResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}
