package workflow

import (
	"go-toolrouter/pkg/models"
)

// State is owned by a single run and handed by pointer from node to node.
type State struct {
	UserQuery   string
	ChatHistory []models.ChatMessage

	Domain           models.Domain
	DomainConfidence float64

	RetrievedTools []models.ToolCandidate

	Decision     models.Decision
	SelectedTool *models.ToolDefinition

	ToolResult        *models.ExecutionResult
	ExecutionAttempts int

	ErrorMessage  string
	ErrorCategory models.ErrorCategory

	FinalResponse string
	// Failed is set when the final response explains an error. A retry that succeeds
	// leaves it unset even though ErrorCategory keeps the last failure.
	Failed bool

	// WorkflowPath is an audit trail of the nodes visited. Routing never reads it.
	WorkflowPath []string
}

func newState(query string, history []models.ChatMessage) *State {
	return &State{
		UserQuery:    query,
		ChatHistory:  history,
		WorkflowPath: make([]string, 0, 8),
	}
}

func (s *State) trace(tag string) {
	s.WorkflowPath = append(s.WorkflowPath, tag)
}

func (s *State) fail(msg string, category models.ErrorCategory) {
	s.ErrorMessage = msg
	s.ErrorCategory = category
}

// Result is everything a caller sees of one run.
type Result struct {
	FinalResponse string               `json:"final_response"`
	WorkflowPath  []string             `json:"workflow_path"`
	Domain        models.Domain        `json:"domain"`
	ErrorCategory models.ErrorCategory `json:"error_category,omitempty"`
	Failed        bool                 `json:"failed"`
}

func (s *State) result() Result {
	return Result{
		FinalResponse: s.FinalResponse,
		WorkflowPath:  s.WorkflowPath,
		Domain:        s.Domain,
		ErrorCategory: s.ErrorCategory,
		Failed:        s.Failed,
	}
}
