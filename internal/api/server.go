package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	session "go-toolrouter/internal/agents/session/actor"
	"go-toolrouter/internal/workflow"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/messages"
	"go-toolrouter/pkg/models"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultRequestTimeout = 3 * time.Minute

// ToolLister exposes the tool catalog.
type ToolLister interface {
	ListTools(ctx context.Context) ([]models.ToolDefinition, error)
	ToolsByDomain(ctx context.Context, domain models.Domain) ([]models.ToolDefinition, error)
}

type Config struct {
	Addr string
	// RequestTimeout bounds how long a handler waits for a session actor.
	RequestTimeout time.Duration
}

type Deps struct {
	Runner   session.Runner
	Tools    ToolLister
	Gatherer prometheus.Gatherer
}

type queryRequest struct {
	Query   string               `json:"query"`
	History []models.ChatMessage `json:"history"`
}

type sessionQueryResponse struct {
	RequestID string `json:"request_id"`
	workflow.Result
}

type toolsResponse struct {
	Count int                     `json:"count"`
	Tools []models.ToolDefinition `json:"tools"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	ac       *actor.RootContext
	server   *http.Server
	sessions *sessionsCache
	deps     Deps
	timeout  time.Duration
}

func New(ac *actor.RootContext, cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	s := &Server{
		ac:       ac,
		sessions: newSessionsCache(),
		deps:     deps,
		timeout:  cfg.RequestTimeout,
	}

	r := chi.NewRouter()
	r.Use(logMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"status": "ok", "sessions": s.sessions.len()})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/query", s.query)
	r.Get("/tools", s.tools)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.newSession)
		r.Post("/{id}/query", s.sessionQuery)
		r.Get("/{id}/history", s.sessionHistory)
		r.Delete("/{id}", s.closeSession)
	})

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	req := queryRequest{}
	if err := unmarshalRequestBody(r, &req); err != nil || strings.TrimSpace(req.Query) == "" {
		log.Debug().Msg("cannot parse body")
		fail(w, r, http.StatusBadRequest, "a non-empty query is required")
		return
	}
	res := s.deps.Runner.Run(r.Context(), req.Query, req.History)
	render.JSON(w, r, res)
}

func (s *Server) tools(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tools == nil {
		fail(w, r, http.StatusServiceUnavailable, "tool catalog unavailable")
		return
	}

	var (
		tools []models.ToolDefinition
		err   error
	)
	if raw := r.URL.Query().Get("domain"); raw != "" {
		domain, ok := models.ParseDomain(raw)
		if !ok {
			fail(w, r, http.StatusBadRequest, fmt.Sprintf("unknown domain %q", raw))
			return
		}
		tools, err = s.deps.Tools.ToolsByDomain(r.Context(), domain)
	} else {
		tools, err = s.deps.Tools.ListTools(r.Context())
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("unable to list tools")
		fail(w, r, http.StatusInternalServerError, "unable to list tools")
		return
	}
	if tools == nil {
		tools = []models.ToolDefinition{}
	}
	render.JSON(w, r, toolsResponse{Count: len(tools), Tools: tools})
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request) {
	decider := func(reason interface{}) actor.Directive {
		log.Error().Msgf("handling failure for session. reason: %v", reason)
		return actor.RestartDirective
	}
	strategy := actor.NewOneForOneStrategy(3, 10000, decider)

	id := uuid.New()
	props := actor.PropsFromProducer(session.Producer(id, s.deps.Runner), actor.WithSupervisor(strategy))
	pid := s.ac.Spawn(props)
	s.sessions.add(id, pid)

	log.Debug().Str(logger.SessionIDField, id.String()).Msg("session started")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, struct {
		ID string `json:"id"`
	}{id.String()})
}

func (s *Server) sessionQuery(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.lookup(w, r)
	if !ok {
		return
	}
	req := queryRequest{}
	if err := unmarshalRequestBody(r, &req); err != nil || strings.TrimSpace(req.Query) == "" {
		fail(w, r, http.StatusBadRequest, "a non-empty query is required")
		return
	}

	requestID := uuid.New()
	res, err := s.ask(pid, messages.Query{RequestID: requestID, Text: req.Query})
	if err != nil {
		hlog.FromRequest(r).Error().Str(logger.SessionIDField, id.String()).Err(err).Msg("unable to query session")
		fail(w, r, http.StatusGatewayTimeout, "session did not answer in time")
		return
	}
	switch msg := res.(type) {
	case messages.QueryResult:
		render.JSON(w, r, sessionQueryResponse{RequestID: msg.RequestID.String(), Result: msg.Result})
	case messages.ReportError:
		fail(w, r, http.StatusConflict, msg.Error)
	default:
		hlog.FromRequest(r).Error().Str(logger.SessionIDField, id.String()).Msgf("unexpected reply %T", res)
		fail(w, r, http.StatusInternalServerError, "unexpected session reply")
	}
}

func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.lookup(w, r)
	if !ok {
		return
	}
	res, err := s.ask(pid, messages.GetHistory{})
	if err != nil {
		hlog.FromRequest(r).Error().Str(logger.SessionIDField, id.String()).Err(err).Msg("unable to get history from session")
		fail(w, r, http.StatusGatewayTimeout, "session did not answer in time")
		return
	}
	history, ok := res.(messages.History)
	if !ok {
		fail(w, r, http.StatusInternalServerError, "unexpected session reply")
		return
	}
	if history.Messages == nil {
		history.Messages = []models.ChatMessage{}
	}
	render.JSON(w, r, history)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if _, err := s.ask(pid, messages.Close{}); err != nil {
		hlog.FromRequest(r).Warn().Str(logger.SessionIDField, id.String()).Err(err).Msg("session did not acknowledge close")
	}
	s.ac.Stop(pid)
	s.sessions.remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *actor.PID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		log.Debug().Msg("cannot parse id")
		fail(w, r, http.StatusBadRequest, "unable to parse id")
		return uuid.Nil, nil, false
	}
	pid, ok := s.sessions.get(id)
	if !ok {
		log.Debug().Str(logger.SessionIDField, idParam).Msg("cannot find id")
		fail(w, r, http.StatusNotFound, "session not found")
		return uuid.Nil, nil, false
	}
	return id, pid, true
}

// ask blocks until the actor replies or the request timeout passes.
func (s *Server) ask(pid *actor.PID, msg interface{}) (interface{}, error) {
	return s.ac.RequestFuture(pid, msg, s.timeout).Result()
}

func fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RefererHandler("referer"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))

	return c.Then
}

func unmarshalRequestBody(req *http.Request, output interface{}) error {
	if req.Body == nil {
		return errors.New("invalid body in request")
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		return err
	}
	if err = req.Body.Close(); err != nil {
		return err
	}
	if err = json.Unmarshal(body, output); err != nil {
		return err
	}

	return nil
}
