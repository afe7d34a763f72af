package handler

import (
	"context"
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

var DomainRouterPrompt = langChainPrompts.NewPromptTemplate(prompts.DomainRouter, []string{"Domains", "Query"})

// Handler classifies queries into domains with a single model call.
type Handler struct {
	chain chains.Chain
	log   zerolog.Logger
}

func New(chain chains.Chain) *Handler {
	return &Handler{
		chain: chain,
		log:   logger.For("router"),
	}
}

func NewFromModel(llm llms.Model) *Handler {
	return New(chains.NewLLMChain(llm, DomainRouterPrompt))
}

// Classify never fails; an unusable answer or a failed call yields models.DefaultDomain with
// zero confidence.
func (h *Handler) Classify(ctx context.Context, query string) models.Classification {
	answer, err := h.call(ctx, query)
	if err != nil {
		h.log.Warn().Err(err).Msg("classification failed, using default domain")
		return classification(models.DefaultDomain, 0)
	}

	d, ok := models.ParseDomain(firstLine(answer))
	if !ok {
		h.log.Warn().Str("answer", answer).Msg("unknown domain in answer, using default domain")
		return classification(models.DefaultDomain, 0)
	}
	h.log.Debug().Str(logger.DomainField, string(d)).Msg("query classified")
	return classification(d, 1)
}

func (h *Handler) call(ctx context.Context, query string) (string, error) {
	completion, err := chains.Call(ctx, h.chain, map[string]any{"Domains": DomainList(), "Query": query}, chains.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("call: %w", err)
	}
	text, ok := completion["text"].(string)
	if !ok {
		return "", fmt.Errorf("call: unexpected completion %T", completion["text"])
	}
	return text, nil
}

// DomainList renders "- NAME: description" lines for every domain.
func DomainList() string {
	lines := make([]string, 0, len(models.Domains()))
	for _, d := range models.Domains() {
		lines = append(lines, fmt.Sprintf("- %s: %s", d, d.Description()))
	}
	return strings.Join(lines, "\n")
}

func classification(d models.Domain, confidence float64) models.Classification {
	return models.Classification{Domain: d, Confidence: confidence, Description: d.Description()}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, " .`*\"'")
}
