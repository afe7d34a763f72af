package workflow

import (
	"context"
	"errors"
	"go-toolrouter/pkg/models"
	"sync"
)

type fakeClassifier struct {
	domain models.Domain
}

func (f fakeClassifier) Classify(context.Context, string) models.Classification {
	return models.Classification{Domain: f.domain, Confidence: 0.9, Description: f.domain.Description()}
}

type fakeRetriever struct {
	tools  []models.ToolCandidate
	err    error
	calls  int
	gotTop int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ models.Domain, topK int) ([]models.ToolCandidate, error) {
	f.calls++
	f.gotTop = topK
	return f.tools, f.err
}

type fakeDecider struct {
	decision models.Decision
	err      error
	history  []models.ChatMessage
}

func (f *fakeDecider) Decide(_ context.Context, _ string, _ []models.ToolCandidate, history []models.ChatMessage) (models.Decision, error) {
	f.history = history
	return f.decision, f.err
}

type fakeSynthesizer struct {
	text    string
	err     error
	calls   int
	result  models.ExecutionResult
	history []models.ChatMessage
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string, result models.ExecutionResult, history []models.ChatMessage) (string, error) {
	f.calls++
	f.result = result
	f.history = history
	return f.text, f.err
}

type execCall struct {
	toolID string
	params map[string]any
	def    models.ToolDefinition
}

// fakeExecutor replays results in order, repeating the last one.
type fakeExecutor struct {
	mu      sync.Mutex
	results []models.ExecutionResult
	panics  bool
	calls   []execCall
}

func (f *fakeExecutor) Execute(_ context.Context, toolID string, params map[string]any, def models.ToolDefinition) models.ExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execCall{toolID: toolID, params: params, def: def})
	if f.panics {
		panic("boom")
	}
	i := len(f.calls) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

type messengerCall struct {
	errText   string
	attempted *models.UseTool
}

type fakeMessenger struct {
	calls []messengerCall
}

func (f *fakeMessenger) GenerateMessage(_ context.Context, _ string, errText string, attempted *models.UseTool) string {
	f.calls = append(f.calls, messengerCall{errText: errText, attempted: attempted})
	return "friendly: " + errText
}

type fakeCatalog struct {
	tools []models.ToolDefinition
	err   error
}

func (f fakeCatalog) ListTools(context.Context) ([]models.ToolDefinition, error) {
	return f.tools, f.err
}

type failingKB struct{}

func (failingKB) Name() string { return "docs" }

func (failingKB) Answer(context.Context, string) (string, error) {
	return "", errors.New("index offline")
}

func ok(status int, data any) models.ExecutionResult {
	return models.ExecutionResult{Success: true, StatusCode: status, Data: data}
}

func failed(status int, msg string) models.ExecutionResult {
	return models.ExecutionResult{Success: false, StatusCode: status, Error: msg}
}

var invoiceTool = models.ToolCandidate{
	ToolDefinition: models.ToolDefinition{
		ID:     "get_invoice",
		Name:   "Get Invoice",
		Domain: models.Invoicing,
		Method: "GET",
		URL:    "https://api.example.com/invoices/{id}",
		Parameters: []models.Parameter{
			{Name: "id", Type: models.ParamPath},
		},
	},
	RelevanceScore: 0.87,
}

type harness struct {
	retriever *fakeRetriever
	decider   *fakeDecider
	synth     *fakeSynthesizer
	exec      *fakeExecutor
	messenger *fakeMessenger
	deps      Deps
}

func newHarness(domain models.Domain, decision models.Decision, results ...models.ExecutionResult) *harness {
	h := &harness{
		retriever: &fakeRetriever{tools: []models.ToolCandidate{invoiceTool}},
		decider:   &fakeDecider{decision: decision},
		synth:     &fakeSynthesizer{text: "Your invoice is paid."},
		exec:      &fakeExecutor{results: results},
		messenger: &fakeMessenger{},
	}
	h.deps = Deps{
		Classifier:  fakeClassifier{domain: domain},
		Retriever:   h.retriever,
		Decider:     h.decider,
		Synthesizer: h.synth,
		Executor:    h.exec,
		Messenger:   h.messenger,
	}
	return h
}
