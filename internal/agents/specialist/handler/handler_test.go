package handler

import (
	"context"
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go-toolrouter/internal/llmtest"
	"go-toolrouter/pkg/models"
	"testing"
)

var tools = []models.ToolCandidate{
	{ToolDefinition: models.ToolDefinition{ID: "get_invoice", Name: "Get Invoice", Description: "Fetch one invoice", Method: "GET", URL: "https://api.example.com/invoices/{id}"}, RelevanceScore: 0.9},
}

func newHandler(t *testing.T, llm llms.Model) *Handler {
	t.Helper()
	h, err := New(llm, Config{Temperature: 0.1, MaxTokens: 512})
	require.NoError(t, err)
	return h
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   models.Decision
	}{
		{
			name:   "use tool",
			answer: `{"action": "use_tool", "tool_id": "get_invoice", "parameters": {"id": "INV-7"}}`,
			want:   models.UseTool{ToolID: "get_invoice", Parameters: map[string]any{"id": "INV-7"}},
		},
		{
			name:   "fenced use tool without parameters",
			answer: "Here you go:\n```json\n{\"action\": \"use_tool\", \"tool_id\": \"get_invoice\"}\n```",
			want:   models.UseTool{ToolID: "get_invoice", Parameters: map[string]any{}},
		},
		{
			name:   "respond",
			answer: `{"action": "respond", "response": "Invoices are due in 30 days."}`,
			want:   models.Respond{Text: "Invoices are due in 30 days."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, llmtest.New(tt.answer))

			got, err := h.Decide(context.Background(), "Get invoice INV-7", tools, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_Malformed(t *testing.T) {
	answers := []string{
		"I think you should check your invoice.",
		`{"action": "use_tool"}`,
		`{"action": "use_tool", "tool_id": ""}`,
		`{"action": "dance"}`,
		`{"action": "respond"}`,
		`{"action": "use_tool", "tool_id": "x", "parameters": [1, 2]}`,
	}
	for _, answer := range answers {
		t.Run(answer, func(t *testing.T) {
			h := newHandler(t, llmtest.New(answer))

			_, err := h.Decide(context.Background(), "q", tools, nil)

			var malformed *models.MalformedDecisionError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, answer, malformed.Raw)
		})
	}
}

func TestDecide_ModelError(t *testing.T) {
	llm := llmtest.New()
	llm.Err = errors.New("anthropic: overloaded")
	h := newHandler(t, llm)

	_, err := h.Decide(context.Background(), "q", tools, nil)

	require.Error(t, err)
	var malformed *models.MalformedDecisionError
	assert.False(t, errors.As(err, &malformed))
	assert.ErrorIs(t, err, llm.Err)
}

func TestDecide_Prompt(t *testing.T) {
	llm := llmtest.New(`{"action": "respond", "response": "ok"}`)
	h := newHandler(t, llm)
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}

	_, err := h.Decide(context.Background(), "Get invoice INV-7", tools, history)
	require.NoError(t, err)

	require.Len(t, llm.Calls, 1)
	msgs := llm.Calls[0]
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.ChatMessageTypeHuman, msgs[0].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, msgs[1].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, msgs[2].Role)
	prompt := llm.LastPrompt()
	assert.Contains(t, prompt, "User Query: Get invoice INV-7")
	assert.Contains(t, prompt, "- Get Invoice (ID: get_invoice): Fetch one invoice [GET https://api.example.com/invoices/{id}]")
}

func TestFormatTools_Limit(t *testing.T) {
	many := make([]models.ToolCandidate, 15)
	for i := range many {
		many[i] = models.ToolCandidate{ToolDefinition: models.ToolDefinition{ID: fmt.Sprintf("t%d", i), Name: "T", Method: "GET", URL: "u"}}
	}

	out, err := FormatTools(many)
	require.NoError(t, err)
	assert.Contains(t, out, "(ID: t9)")
	assert.NotContains(t, out, "(ID: t10)")

	out, err = FormatTools(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSynthesize(t *testing.T) {
	llm := llmtest.New("  Invoice INV-7 is paid.\n")
	h := newHandler(t, llm)
	result := models.ExecutionResult{Success: true, StatusCode: 200, Data: map[string]any{"status": "paid"}}

	got, err := h.Synthesize(context.Background(), "Is INV-7 paid?", result, []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-7 is paid.", got)
	prompt := llm.LastPrompt()
	assert.Contains(t, prompt, `The user asked: "Is INV-7 paid?"`)
	assert.Contains(t, prompt, `"status_code": 200`)
	assert.Contains(t, prompt, `"status": "paid"`)
	assert.Len(t, llm.Calls[0], 2)
}

func TestSynthesize_ModelError(t *testing.T) {
	llm := llmtest.New()
	h := newHandler(t, llm)

	_, err := h.Synthesize(context.Background(), "q", models.ExecutionResult{}, nil)

	assert.ErrorIs(t, err, llmtest.ErrExhausted)
}
