package errhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	langChainPrompts "github.com/tmc/langchaingo/prompts"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/models"
	"go-toolrouter/pkg/prompts"
	"strings"
)

var FriendlyErrorPrompt = langChainPrompts.NewPromptTemplate(prompts.FriendlyError, []string{"Query", "Error", "ToolInfo"})

// Messenger turns technical failures into short user-facing text. It never fails.
type Messenger struct {
	chain     chains.Chain
	templates map[models.ErrorCategory]string
	log       zerolog.Logger
}

// NewMessenger builds a messenger over llm; a nil llm disables generation and every
// uncategorised error falls back to the UNKNOWN template. overrides replace individual
// default templates; an empty override removes one.
func NewMessenger(llm llms.Model, overrides map[models.ErrorCategory]string) *Messenger {
	templates := DefaultTemplates()
	for k, v := range overrides {
		templates[k] = v
	}
	m := &Messenger{templates: templates, log: logger.For("errhandler")}
	if llm != nil {
		m.chain = chains.NewLLMChain(llm, FriendlyErrorPrompt)
	}
	return m
}

// GenerateMessage explains errText to the user. Known categories use their template;
// UNKNOWN (and anything without a template) is written by the model.
func (m *Messenger) GenerateMessage(ctx context.Context, query, errText string, attempted *models.UseTool) string {
	category := Categorize(errText)
	if category != models.ErrUnknown {
		if tmpl := m.templates[category]; tmpl != "" {
			return m.refine(category, tmpl, errText)
		}
	}

	msg, err := m.generate(ctx, query, errText, attempted)
	if err != nil {
		m.log.Warn().Err(err).Str(logger.CategoryField, string(category)).Msg("unable to generate error message, using fallback")
		return m.fallback()
	}
	return msg
}

func (m *Messenger) refine(category models.ErrorCategory, tmpl, errText string) string {
	if category != models.ErrInvalid {
		return tmpl
	}
	lower := strings.ToLower(errText)
	switch {
	case strings.Contains(lower, "email"):
		return invalidEmail
	case strings.Contains(lower, "amount"), strings.Contains(lower, "number"):
		return invalidNumber
	}
	return tmpl
}

func (m *Messenger) generate(ctx context.Context, query, errText string, attempted *models.UseTool) (string, error) {
	if m.chain == nil {
		return "", fmt.Errorf("no language model configured")
	}
	toolInfo := ""
	if attempted != nil {
		params := fmt.Sprint(attempted.Parameters)
		if b, err := json.Marshal(attempted.Parameters); err == nil {
			params = string(b)
		}
		toolInfo = fmt.Sprintf("\nTool attempted: %s\nParameters: %s", attempted.ToolID, params)
	}
	completion, err := chains.Call(ctx, m.chain, map[string]any{"Query": query, "Error": errText, "ToolInfo": toolInfo})
	if err != nil {
		return "", fmt.Errorf("call: %w", err)
	}
	text, ok := completion["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(text), nil
}

func (m *Messenger) fallback() string {
	if tmpl := m.templates[models.ErrUnknown]; tmpl != "" {
		return tmpl
	}
	return genericApology
}
