package workflow

import (
	"context"
	"errors"
	"go-toolrouter/pkg/models"
	"go-toolrouter/pkg/prompts"
	"go-toolrouter/pkg/template"
	"sort"
	"strings"
)

const (
	statusClarification = "To check request status, I'll need more details. " +
		"Could you provide a request ID or describe which request you're asking about?"
	searchFallback     = "I can help you search for available tools or check request status. What would you like to know?"
	catalogUnavailable = "I'm unable to list my tools right now. Please try again in a moment."
	ragNotConfigured   = "I can help you search our knowledge base. " +
		"However, the RAG system is not yet fully configured. " +
		"Please provide your question and I'll do my best to assist."
)

var errNoCatalog = errors.New("no tool catalog attached")

var (
	catalogPhrases = []string{
		"available tools", "what can you do", "capabilities",
		"what tools", "which tools", "list tools", "tools do you have",
	}
	statusPhrases = []string{"status", "request", "history"}
)

// PlaceholderKnowledgeBase stands in until a document store is attached.
type PlaceholderKnowledgeBase struct{}

func (PlaceholderKnowledgeBase) Name() string { return "placeholder" }

func (PlaceholderKnowledgeBase) Answer(context.Context, string) (string, error) {
	return ragNotConfigured, nil
}

func (w *Workflow) rag(ctx context.Context, s *State) {
	kb := w.deps.KnowledgeBase
	answer, err := kb.Answer(ctx, s.UserQuery)
	if err != nil {
		w.log.Error().Err(err).Str("kb", kb.Name()).Msg("knowledge base lookup failed")
		s.fail(err.Error(), models.ErrUnknown)
		answer = w.deps.Messenger.GenerateMessage(ctx, s.UserQuery, err.Error(), nil)
		s.Failed = true
	}
	s.FinalResponse = answer
	s.trace("rag:" + kb.Name())
}

func (w *Workflow) systemSearch(ctx context.Context, s *State) {
	q := strings.ToLower(s.UserQuery)
	switch {
	case containsAny(q, catalogPhrases):
		summary, err := w.catalogSummary(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("unable to list tools")
			s.fail(err.Error(), models.ErrUnknown)
			s.FinalResponse = catalogUnavailable
			s.Failed = true
			s.trace("system_search:unavailable")
			return
		}
		s.FinalResponse = summary
		s.trace("system_search:list_tools")
	case containsAny(q, statusPhrases):
		s.FinalResponse = statusClarification
		s.trace("system_search:status_query")
	default:
		s.FinalResponse = searchFallback
		s.trace("system_search:general")
	}
}

type domainCount struct {
	Domain models.Domain
	Count  int
}

func (w *Workflow) catalogSummary(ctx context.Context) (string, error) {
	if w.deps.Catalog == nil {
		return "", errNoCatalog
	}
	tools, err := w.deps.Catalog.ListTools(ctx)
	if err != nil {
		return "", err
	}
	return renderCatalog(tools)
}

func renderCatalog(tools []models.ToolDefinition) (string, error) {
	counts := map[models.Domain]int{}
	for _, t := range tools {
		d := t.Domain
		if d == "" {
			d = models.DefaultDomain
		}
		counts[d]++
	}
	rows := make([]domainCount, 0, len(counts))
	for d, n := range counts {
		rows = append(rows, domainCount{Domain: d, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Domain < rows[j].Domain })

	return template.Parse(prompts.CatalogSummary, map[string]any{
		"Total":   len(tools),
		"Domains": rows,
	})
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
