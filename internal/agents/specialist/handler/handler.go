package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go-toolrouter/pkg/data"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/models"
	"go-toolrouter/pkg/prompts"
	"go-toolrouter/pkg/template"
	"strings"
)

// MaxPromptTools caps how many candidates are shown to the model.
const MaxPromptTools = 10

var errEmptyResponse = errors.New("empty response from model")

type Config struct {
	Temperature float64
	MaxTokens   int
}

// Handler is the specialist agent: it picks a tool or answers, and turns tool results
// into prose.
type Handler struct {
	llm    llms.Model
	opts   []llms.CallOption
	schema *jsonschema.Schema
	log    zerolog.Logger
}

func New(llm llms.Model, cfg Config) (*Handler, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(decisionSchemaURL, strings.NewReader(decisionSchema)); err != nil {
		return nil, fmt.Errorf("decision schema load failed: %w", err)
	}
	schema, err := c.Compile(decisionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("decision schema compile failed: %w", err)
	}

	opts := []llms.CallOption{llms.WithTemperature(cfg.Temperature)}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	return &Handler{
		llm:    llm,
		opts:   opts,
		schema: schema,
		log:    logger.For("specialist"),
	}, nil
}

type decisionInput struct {
	Query string
	Tools string
}

// Decide asks the model for a decision. A reply that is not a valid decision is reported
// as *models.MalformedDecisionError carrying the raw reply.
func (h *Handler) Decide(ctx context.Context, query string, tools []models.ToolCandidate, history []models.ChatMessage) (models.Decision, error) {
	toolText, err := FormatTools(tools)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	prompt, err := template.Parse(prompts.AgentDecision, decisionInput{Query: query, Tools: toolText})
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	answer, err := h.generate(ctx, history, prompt)
	if err != nil {
		return nil, err
	}
	return h.parseDecision(answer)
}

type wireDecision struct {
	Action     string         `json:"action"`
	ToolID     string         `json:"tool_id"`
	Parameters map[string]any `json:"parameters"`
	Response   string         `json:"response"`
}

func (h *Handler) parseDecision(answer string) (models.Decision, error) {
	match, err := data.SanitizeAnswer(answer)
	if err != nil {
		return nil, &models.MalformedDecisionError{Raw: answer, Cause: err}
	}

	var doc any
	if err := json.Unmarshal([]byte(match), &doc); err != nil {
		return nil, &models.MalformedDecisionError{Raw: answer, Cause: err}
	}
	if err := h.schema.Validate(doc); err != nil {
		return nil, &models.MalformedDecisionError{Raw: answer, Cause: err}
	}

	var d wireDecision
	if err := json.Unmarshal([]byte(match), &d); err != nil {
		return nil, &models.MalformedDecisionError{Raw: answer, Cause: err}
	}
	switch d.Action {
	case "use_tool":
		if d.Parameters == nil {
			d.Parameters = map[string]any{}
		}
		h.log.Debug().Str(logger.ToolIDField, d.ToolID).Msg("model chose a tool")
		return models.UseTool{ToolID: d.ToolID, Parameters: d.Parameters}, nil
	default:
		return models.Respond{Text: d.Response}, nil
	}
}

type synthesisInput struct {
	Query  string
	Result string
}

func (h *Handler) Synthesize(ctx context.Context, query string, result models.ExecutionResult, history []models.ChatMessage) (string, error) {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	prompt, err := template.Parse(prompts.AgentSynthesis, synthesisInput{Query: query, Result: string(b)})
	if err != nil {
		return "", fmt.Errorf("execute: %w", err)
	}
	answer, err := h.generate(ctx, history, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (h *Handler) generate(ctx context.Context, history []models.ChatMessage, prompt string) (string, error) {
	resp, err := h.llm.GenerateContent(ctx, Conversation(history, prompt), h.opts...)
	if err != nil {
		return "", fmt.Errorf("call: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("call: %w", errEmptyResponse)
	}
	return resp.Choices[0].Content, nil
}

// Conversation replays history as chat turns and appends prompt as the final user turn.
func Conversation(history []models.ChatMessage, prompt string) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(history)+1)
	for _, m := range history {
		role := schema.ChatMessageTypeAI
		if m.Role == models.RoleUser {
			role = schema.ChatMessageTypeHuman
		}
		msgs = append(msgs, llms.TextParts(role, m.Content))
	}
	return append(msgs, llms.TextParts(schema.ChatMessageTypeHuman, prompt))
}

// FormatTools renders at most MaxPromptTools candidates, one per line.
func FormatTools(tools []models.ToolCandidate) (string, error) {
	if len(tools) > MaxPromptTools {
		tools = tools[:MaxPromptTools]
	}
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		line, err := template.Parse(prompts.ToolLine, t)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
