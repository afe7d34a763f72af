package workflow

import (
	"context"
	"errors"
	"fmt"
	"go-toolrouter/internal/errhandler"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/memory/buffer"
	"go-toolrouter/pkg/models"
)

const (
	decisionHistory  = 4
	synthesisHistory = 2
)

var errNoDecision = errors.New("decision engine returned no decision")

func (w *Workflow) route(ctx context.Context, s *State) {
	c := w.deps.Classifier.Classify(ctx, s.UserQuery)
	if !c.Domain.Valid() {
		c.Domain = models.DefaultDomain
	}
	s.Domain = c.Domain
	s.DomainConfidence = c.Confidence
	s.trace("route:" + string(c.Domain))
}

func (w *Workflow) retrieve(ctx context.Context, s *State) {
	tools, err := w.deps.Retriever.Retrieve(ctx, s.UserQuery, s.Domain, w.topK)
	if err != nil {
		w.log.Warn().Err(err).Str(logger.DomainField, string(s.Domain)).Msg("tool retrieval failed, continuing without tools")
		tools = nil
	}
	s.RetrievedTools = tools
	s.trace(fmt.Sprintf("retrieve:%d_tools", len(tools)))
}

func (w *Workflow) decide(ctx context.Context, s *State) {
	decision, err := w.deps.Decider.Decide(ctx, s.UserQuery, s.RetrievedTools, buffer.Last(s.ChatHistory, decisionHistory))
	decision = concrete(decision)
	if err == nil && decision == nil {
		err = errNoDecision
	}
	if err != nil {
		var malformed *models.MalformedDecisionError
		if errors.As(err, &malformed) {
			// Unparseable output is passed through as a direct answer.
			w.log.Warn().Err(err).Msg("decision not parseable, answering with raw output")
			w.metrics.ObserveFailOpen()
			s.Decision = models.Respond{Text: malformed.Raw}
			s.trace("decide:respond")
			return
		}
		w.decisionFailed(ctx, s, err)
		return
	}

	switch d := decision.(type) {
	case models.UseTool:
		if d.Parameters == nil {
			d.Parameters = map[string]any{}
		}
		s.Decision = d
		s.SelectedTool = lookupTool(s.RetrievedTools, d.ToolID)
		if s.SelectedTool == nil {
			w.log.Warn().Str(logger.ToolIDField, d.ToolID).Msg("selected tool is not among the retrieved tools")
		}
	case models.Respond:
		s.Decision = d
	default:
		w.decisionFailed(ctx, s, fmt.Errorf("%w: unsupported type %T", errNoDecision, decision))
		return
	}
	s.trace("decide:" + s.Decision.Action())
}

func (w *Workflow) decisionFailed(ctx context.Context, s *State, err error) {
	w.log.Error().Err(err).Msg("decision failed")
	s.fail(err.Error(), errhandler.Categorize(err.Error()))
	s.Decision = models.Respond{Text: w.deps.Messenger.GenerateMessage(ctx, s.UserQuery, err.Error(), nil)}
	s.Failed = true
	s.trace("decide:error")
}

// concrete dereferences pointer decisions; a nil pointer counts as no decision.
func concrete(d models.Decision) models.Decision {
	switch v := d.(type) {
	case *models.UseTool:
		if v == nil {
			return nil
		}
		return *v
	case *models.Respond:
		if v == nil {
			return nil
		}
		return *v
	}
	return d
}

func lookupTool(tools []models.ToolCandidate, id string) *models.ToolDefinition {
	for i := range tools {
		if tools[i].ID == id {
			def := tools[i].ToolDefinition
			return &def
		}
	}
	return nil
}

func (w *Workflow) callTool(ctx context.Context, s *State) {
	call := s.Decision.(models.UseTool)
	s.ExecutionAttempts++

	var def models.ToolDefinition
	if s.SelectedTool != nil {
		def = *s.SelectedTool
	}

	l := w.log.With().Str(logger.ToolIDField, call.ToolID).Int(logger.AttemptField, s.ExecutionAttempts).Logger()
	res, err := w.execute(ctx, call, def)
	if err != nil {
		l.Error().Err(err).Msg("executor panicked")
		s.ToolResult = &models.ExecutionResult{Success: false, Error: err.Error()}
		s.fail(err.Error(), models.ErrExecution)
		s.trace("execute:exception")
		return
	}

	s.ToolResult = &res
	s.trace(fmt.Sprintf("execute:%d", res.StatusCode))
	if res.Success {
		l.Debug().Int(logger.StatusField, res.StatusCode).Msg("tool call succeeded")
		return
	}

	msg := res.Error
	if msg == "" {
		msg = "Tool execution failed"
	}
	s.fail(msg, errhandler.Categorize(msg))
	l.Warn().Int(logger.StatusField, res.StatusCode).Str(logger.CategoryField, string(s.ErrorCategory)).Msg("tool call failed")
}

func (w *Workflow) execute(ctx context.Context, call models.UseTool, def models.ToolDefinition) (res models.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return w.deps.Executor.Execute(ctx, call.ToolID, call.Parameters, def), nil
}

func (w *Workflow) synthesize(ctx context.Context, s *State) {
	switch d := s.Decision.(type) {
	case models.Respond:
		s.FinalResponse = d.Text
		s.trace("synthesize:direct")
	case models.UseTool:
		var result models.ExecutionResult
		if s.ToolResult != nil {
			result = *s.ToolResult
		}
		text, err := w.deps.Synthesizer.Synthesize(ctx, s.UserQuery, result, buffer.Last(s.ChatHistory, synthesisHistory))
		if err != nil {
			w.log.Error().Err(err).Msg("synthesis failed")
			s.fail(err.Error(), errhandler.Categorize(err.Error()))
			s.FinalResponse = w.deps.Messenger.GenerateMessage(ctx, s.UserQuery, err.Error(), &d)
			s.Failed = true
			s.trace("synthesize:failed")
			return
		}
		s.FinalResponse = text
		s.trace("synthesize:from_tool")
	}
}

func (w *Workflow) handleError(ctx context.Context, s *State) {
	if s.ErrorMessage == "" {
		s.ErrorMessage = "Unknown error"
	}
	if s.ErrorCategory == "" {
		s.ErrorCategory = models.ErrUnknown
	}

	var attempted *models.UseTool
	if call, ok := s.Decision.(models.UseTool); ok {
		attempted = &call
	}
	s.FinalResponse = w.deps.Messenger.GenerateMessage(ctx, s.UserQuery, s.ErrorMessage, attempted)
	s.Failed = true
	s.trace("error:" + string(s.ErrorCategory))
}
