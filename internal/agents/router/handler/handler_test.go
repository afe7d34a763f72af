package handler

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"go-toolrouter/internal/llmtest"
	"go-toolrouter/pkg/models"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		answer string
		want   models.Domain
		conf   float64
	}{
		{"INVOICING", models.Invoicing, 1},
		{"  payments\n", models.Payments, 1},
		{"SYSTEM_SEARCH.", models.SystemSearch, 1},
		{"RAG_QUERY\nBecause the user asks about policy.", models.RagQuery, 1},
		{"SHOPPING", models.General, 0},
		{"", models.General, 0},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			llm := llmtest.New(tt.answer)
			h := NewFromModel(llm)

			got := h.Classify(context.Background(), "What tools do you have?")

			assert.Equal(t, tt.want, got.Domain)
			assert.Equal(t, tt.conf, got.Confidence)
			assert.Equal(t, tt.want.Description(), got.Description)
			assert.Contains(t, llm.LastPrompt(), "Query: What tools do you have?")
			assert.Contains(t, llm.LastPrompt(), "- USER_MANAGEMENT: Managing users, accounts, and permissions")
		})
	}
}

func TestClassify_ModelFailure(t *testing.T) {
	llm := llmtest.New()
	llm.Err = errors.New("openai: 500 internal error")

	got := NewFromModel(llm).Classify(context.Background(), "pay invoice 7")

	assert.Equal(t, models.DefaultDomain, got.Domain)
	assert.Zero(t, got.Confidence)
}

func TestDomainList(t *testing.T) {
	list := DomainList()
	for _, d := range models.Domains() {
		assert.Contains(t, list, "- "+string(d)+": ")
	}
}
