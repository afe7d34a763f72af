package models

type ErrorCategory string

const (
	ErrTimeout    ErrorCategory = "TIMEOUT"
	ErrAuth       ErrorCategory = "AUTH"
	ErrNotFound   ErrorCategory = "NOT_FOUND"
	ErrInvalid    ErrorCategory = "INVALID_INPUT"
	ErrRateLimit  ErrorCategory = "RATE_LIMIT"
	ErrForbidden  ErrorCategory = "FORBIDDEN"
	ErrServer     ErrorCategory = "SERVER_ERROR"
	ErrConnection ErrorCategory = "CONNECTION"
	ErrUnknown    ErrorCategory = "UNKNOWN"
	ErrExecution  ErrorCategory = "EXECUTION_ERROR" // executor panicked
)

// Retryable reports whether a failed tool call in this category may be attempted again.
func (c ErrorCategory) Retryable() bool {
	switch c {
	case ErrTimeout, ErrConnection, ErrServer:
		return true
	default:
		return false
	}
}
