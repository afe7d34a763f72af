package workflow

import (
	"fmt"
	"go-toolrouter/internal/errhandler"
	"go-toolrouter/pkg/models"
)

type Node string

const (
	NodeRoute        Node = "route"
	NodeRetrieve     Node = "retrieve"
	NodeDecide       Node = "decide"
	NodeCallTool     Node = "call_tool"
	NodeSynthesize   Node = "synthesize"
	NodeHandleError  Node = "handle_error"
	NodeRag          Node = "rag"
	NodeSystemSearch Node = "system_search"
	NodeEnd          Node = "end"
)

// MaxExecutionAttempts bounds how often one tool call is attempted in a run.
const MaxExecutionAttempts = 2

// next is the transition function of the graph. Every node has exactly one case.
func next(from Node, s *State) Node {
	switch from {
	case NodeRoute:
		return afterRoute(s)
	case NodeRetrieve:
		return NodeDecide
	case NodeDecide:
		return afterDecide(s)
	case NodeCallTool:
		return afterCallTool(s)
	case NodeSynthesize, NodeHandleError, NodeRag, NodeSystemSearch:
		return NodeEnd
	case NodeEnd:
		return NodeEnd
	default:
		panic(fmt.Sprintf("workflow: unknown node %q", from))
	}
}

func afterRoute(s *State) Node {
	switch s.Domain {
	case models.RagQuery:
		return NodeRag
	case models.SystemSearch:
		return NodeSystemSearch
	default:
		return NodeRetrieve
	}
}

func afterDecide(s *State) Node {
	switch s.Decision.(type) {
	case models.UseTool:
		return NodeCallTool
	case models.Respond:
		return NodeSynthesize
	default:
		panic(fmt.Sprintf("workflow: unexpected decision %T", s.Decision))
	}
}

// afterCallTool routes a finished attempt: success goes to synthesis, a retryable failure
// with budget left goes back to call_tool, anything else to handle_error.
func afterCallTool(s *State) Node {
	if s.ToolResult != nil && s.ToolResult.Success {
		return NodeSynthesize
	}
	if s.ErrorMessage == "" {
		msg := "Tool execution failed"
		if s.ToolResult != nil && s.ToolResult.Error != "" {
			msg = s.ToolResult.Error
		}
		s.fail(msg, errhandler.Categorize(msg))
	}
	if shouldRetry(s) {
		return NodeCallTool
	}
	return NodeHandleError
}

func shouldRetry(s *State) bool {
	return s.ExecutionAttempts < MaxExecutionAttempts && s.ErrorCategory.Retryable()
}
