package messages

import (
	"github.com/google/uuid"
	"go-toolrouter/internal/workflow"
	"go-toolrouter/pkg/models"
)

// Query asks a session to run one workflow over Text with the session history.
type Query struct {
	RequestID uuid.UUID
	Text      string
}

type QueryResult struct {
	RequestID uuid.UUID
	workflow.Result
}

type GetHistory struct{}

type History struct {
	State    models.State         `json:"state"`
	Messages []models.ChatMessage `json:"messages"`
}

// Close marks a session finished; later queries are rejected.
type Close struct{}

type Closed struct{}

type ReportError struct {
	Error string
}
