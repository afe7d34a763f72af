package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go-toolrouter/pkg/models"
	"io"
	"net/http"
	"net/url"
	"strings"
)

func (e *Executor) newRequest(ctx context.Context, toolID string, params map[string]any, def models.ToolDefinition) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(def.Method))
	if method == "" || def.URL == "" {
		return nil, fmt.Errorf("tool definition for %q not found", toolID)
	}

	u, err := url.Parse(BuildURL(def.URL, params))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	header := e.buildHeaders(def.Headers, params)

	var body io.Reader
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		fields := BuildBody(params, def)
		if def.BodyType == models.BodyFormData {
			form := url.Values{}
			for k, v := range fields {
				form.Set(k, stringify(v))
			}
			body = strings.NewReader(form.Encode())
			header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			b, err := json.Marshal(fields)
			if err != nil {
				return nil, fmt.Errorf("marshal body: %w", err)
			}
			body = bytes.NewReader(b)
		}
	case http.MethodGet:
		if query := BuildQuery(params, def); len(query) > 0 {
			q := u.Query()
			for k, vs := range query {
				q[k] = vs
			}
			u.RawQuery = q.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header = header
	return req, nil
}

// BuildURL substitutes params into the {{key}}, {key} and :key placeholders of tmpl.
func BuildURL(tmpl string, params map[string]any) string {
	return substitute(tmpl, params, true)
}

func (e *Executor) buildHeaders(defs []models.Header, params map[string]any) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("User-Agent", e.userAgent)

	for _, d := range defs {
		if d.Key == "" || d.Value == "" {
			continue
		}
		value := substitute(d.Value, params, false)
		if strings.ContainsAny(value, "\r\n\x00") {
			e.log.Warn().Str("header", d.Key).Msg("dropping header with control characters")
			continue
		}
		h.Set(d.Key, value)
	}

	if v, ok := params["api_key"]; ok {
		h.Set("Authorization", "Bearer "+stringify(v))
	} else if v, ok := params["auth_token"]; ok {
		h.Set("Authorization", "Bearer "+stringify(v))
	}
	return h
}

// BuildBody selects the parameters that travel in the request body. Tools that declare
// body or formdata parameters get exactly those that are present; tools that declare none
// get every parameter not declared as path or query.
func BuildBody(params map[string]any, def models.ToolDefinition) map[string]any {
	body := map[string]any{}
	if declared := def.ParamsOfType(models.ParamBody, models.ParamFormData); len(declared) > 0 {
		for _, name := range declared {
			if v, ok := params[name]; ok {
				body[name] = v
			}
		}
		return body
	}

	excluded := map[string]bool{}
	for _, name := range def.ParamsOfType(models.ParamPath, models.ParamQuery) {
		excluded[name] = true
	}
	for k, v := range params {
		if !excluded[k] {
			body[k] = v
		}
	}
	return body
}

// BuildQuery returns the declared query parameters present in params, stringified.
func BuildQuery(params map[string]any, def models.ToolDefinition) url.Values {
	q := url.Values{}
	for _, name := range def.ParamsOfType(models.ParamQuery) {
		if v, ok := params[name]; ok {
			q.Set(name, stringify(v))
		}
	}
	return q
}
