// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"github.com/tmc/langchaingo/llms"
	"strings"
	"sync"
)

var ErrExhausted = errors.New("llmtest: no scripted responses left")

// FakeLLM replies with Responses in order and records every conversation it receives.
// When Err is set every call fails with it.
type FakeLLM struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     [][]llms.MessageContent
}

func New(responses ...string) *FakeLLM {
	return &FakeLLM{Responses: responses}
}

func (f *FakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, messages)
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Responses) == 0 {
		return nil, ErrExhausted
	}
	text := f.Responses[0]
	f.Responses = f.Responses[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (f *FakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// LastPrompt joins the text parts of the most recent conversation.
func (f *FakeLLM) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range f.Calls[len(f.Calls)-1] {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				b.WriteString(t.Text)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (f *FakeLLM) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

var _ llms.Model = (*FakeLLM)(nil)
