package models

import "fmt"

// Decision is either UseTool or Respond.
type Decision interface {
	isDecision()
	Action() string
}

type UseTool struct {
	ToolID     string         `json:"tool_id"`
	Parameters map[string]any `json:"parameters"`
}

type Respond struct {
	Text string `json:"response"`
}

func (UseTool) isDecision() {}
func (Respond) isDecision() {}

func (UseTool) Action() string { return "use_tool" }
func (Respond) Action() string { return "respond" }

// MalformedDecisionError is returned by a decision engine whose model replied with
// something that is not a valid decision. Raw holds the reply verbatim.
type MalformedDecisionError struct {
	Raw   string
	Cause error
}

func (e *MalformedDecisionError) Error() string {
	return fmt.Sprintf("malformed decision: %v", e.Cause)
}

func (e *MalformedDecisionError) Unwrap() error { return e.Cause }
