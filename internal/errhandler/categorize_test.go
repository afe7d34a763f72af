package errhandler

import (
	"github.com/stretchr/testify/assert"
	"go-toolrouter/pkg/models"
	"testing"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		in   string
		want models.ErrorCategory
	}{
		{"Error 404: user not found", models.ErrNotFound},
		{"Request timeout after 30s", models.ErrTimeout},
		{"HTTP 408", models.ErrTimeout},
		{"Unauthorized - Authentication required", models.ErrAuth},
		{"missing API key", models.ErrAuth},
		{"token expired", models.ErrAuth},
		{"Bad Request - Invalid parameters", models.ErrInvalid},
		{"validation error on field x", models.ErrInvalid},
		{"Rate Limit Exceeded - Too many requests", models.ErrRateLimit},
		{"Forbidden - Access denied", models.ErrForbidden},
		{"Internal Server Error", models.ErrServer},
		{"Service Unavailable", models.ErrServer},
		{"Connection failed: dial tcp: connection refused", models.ErrConnection},
		{"network is unreachable", models.ErrConnection},
		{"Execution failed: something odd", models.ErrUnknown},
		{"", models.ErrUnknown},
		// priority: timeout beats the server code, auth beats invalid
		{"503 upstream timeout", models.ErrTimeout},
		{"invalid token", models.ErrAuth},
		{"400 invalid amount", models.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.in))
		})
	}
}
