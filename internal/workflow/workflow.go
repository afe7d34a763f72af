// Package workflow runs one user query through classification, retrieval, decision, tool
// execution and synthesis, with a retry loop and an error fallback.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/metrics"
	"go-toolrouter/pkg/models"
	"time"
)

const DefaultTopK = 10

// Deps are the capabilities a Workflow is assembled from. Catalog and KnowledgeBase are
// optional.
type Deps struct {
	Classifier    Classifier
	Retriever     Retriever
	Decider       DecisionEngine
	Synthesizer   Synthesizer
	Executor      ToolExecutor
	Messenger     ErrorMessenger
	Catalog       Catalog
	KnowledgeBase KnowledgeBase
}

func (d Deps) validate() error {
	var errs []error
	if d.Classifier == nil {
		errs = append(errs, errors.New("classifier is required"))
	}
	if d.Retriever == nil {
		errs = append(errs, errors.New("retriever is required"))
	}
	if d.Decider == nil {
		errs = append(errs, errors.New("decision engine is required"))
	}
	if d.Synthesizer == nil {
		errs = append(errs, errors.New("synthesizer is required"))
	}
	if d.Executor == nil {
		errs = append(errs, errors.New("executor is required"))
	}
	if d.Messenger == nil {
		errs = append(errs, errors.New("error messenger is required"))
	}
	return errors.Join(errs...)
}

type Workflow struct {
	deps    Deps
	topK    int
	timeout time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

type Option func(*Workflow)

func WithTopK(k int) Option {
	return func(w *Workflow) {
		if k > 0 {
			w.topK = k
		}
	}
}

// WithTimeout bounds a whole run. When it expires the run finishes through handle_error
// once the current node returns.
func WithTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		w.timeout = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

func New(deps Deps, opts ...Option) (*Workflow, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}
	if deps.KnowledgeBase == nil {
		deps.KnowledgeBase = PlaceholderKnowledgeBase{}
	}
	w := &Workflow{
		deps: deps,
		topK: DefaultTopK,
		log:  logger.For("workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes query and always produces a response; failures surface as a friendly
// FinalResponse plus an ErrorCategory.
func (w *Workflow) Run(ctx context.Context, query string, history []models.ChatMessage) Result {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	s := newState(query, history)
	node := NodeRoute
	if err := ctx.Err(); err != nil {
		node = interrupt(s, err)
	}

	last := node
	for node != NodeEnd {
		start := time.Now()
		w.log.Debug().Str(logger.NodeField, string(node)).Msg("entering node")
		w.step(ctx, node, s)
		w.metrics.ObserveNode(string(node), start)

		last = node
		node = next(node, s)
		if node != NodeEnd {
			if err := ctx.Err(); err != nil {
				node = interrupt(s, err)
			}
		}
	}

	w.metrics.ObserveRun(string(s.Domain), string(last))
	w.log.Info().
		Str(logger.DomainField, string(s.Domain)).
		Strs("path", s.WorkflowPath).
		Str(logger.CategoryField, string(s.ErrorCategory)).
		Msg("workflow finished")
	return s.result()
}

// interrupt diverts a cancelled run to handle_error.
func interrupt(s *State, err error) Node {
	s.fail(fmt.Sprintf("Request timeout: %v", err), models.ErrTimeout)
	return NodeHandleError
}

func (w *Workflow) step(ctx context.Context, node Node, s *State) {
	switch node {
	case NodeRoute:
		w.route(ctx, s)
	case NodeRetrieve:
		w.retrieve(ctx, s)
	case NodeDecide:
		w.decide(ctx, s)
	case NodeCallTool:
		w.callTool(ctx, s)
	case NodeSynthesize:
		w.synthesize(ctx, s)
	case NodeHandleError:
		w.handleError(ctx, s)
	case NodeRag:
		w.rag(ctx, s)
	case NodeSystemSearch:
		w.systemSearch(ctx, s)
	default:
		panic(fmt.Sprintf("workflow: no handler for node %q", node))
	}
}
