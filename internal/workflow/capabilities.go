package workflow

import (
	"context"
	"go-toolrouter/pkg/models"
)

// Classifier maps a query onto a domain. It must degrade to models.DefaultDomain rather
// than fail.
type Classifier interface {
	Classify(ctx context.Context, query string) models.Classification
}

// Retriever returns tool candidates for a domain ordered by descending relevance.
type Retriever interface {
	Retrieve(ctx context.Context, query string, domain models.Domain, topK int) ([]models.ToolCandidate, error)
}

// DecisionEngine chooses between calling a tool and answering directly. Unparseable model
// output is reported as *models.MalformedDecisionError.
type DecisionEngine interface {
	Decide(ctx context.Context, query string, tools []models.ToolCandidate, history []models.ChatMessage) (models.Decision, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, query string, result models.ExecutionResult, history []models.ChatMessage) (string, error)
}

type ToolExecutor interface {
	Execute(ctx context.Context, toolID string, params map[string]any, def models.ToolDefinition) models.ExecutionResult
}

type ErrorMessenger interface {
	GenerateMessage(ctx context.Context, query, errText string, attempted *models.UseTool) string
}

// Catalog lists every known tool for the system-search handler.
type Catalog interface {
	ListTools(ctx context.Context) ([]models.ToolDefinition, error)
}

// KnowledgeBase answers RAG_QUERY requests.
type KnowledgeBase interface {
	Name() string
	Answer(ctx context.Context, query string) (string, error)
}
