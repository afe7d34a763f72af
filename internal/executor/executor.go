package executor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/metrics"
	"go-toolrouter/pkg/models"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

const maxResponseBytes = 10 << 20

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

type Executor struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

type Option func(*Executor)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.client = c }
}

// New builds an executor around one shared, pooled http.Client. The client carries no
// per-call state: headers and bodies are rebuilt from each call's parameters.
func New(cfg Config, opts ...Option) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "go-toolrouter/1.0"
	}
	e := &Executor{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
			Timeout: cfg.Timeout,
		},
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		log:       logger.For("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute issues the request described by def with params and never fails: every error is
// folded into the returned result.
func (e *Executor) Execute(ctx context.Context, toolID string, params map[string]any, def models.ToolDefinition) (res models.ExecutionResult) {
	start := time.Now()
	l := e.log.With().Str(logger.ToolIDField, toolID).Logger()
	defer func() {
		if r := recover(); r != nil {
			l.Error().Interface("panic", r).Msg("tool execution panicked")
			res = failure(http.StatusInternalServerError, fmt.Sprintf("Execution failed: %v", r))
		}
		// Labelled by catalog id so model-invented ids cannot grow the series.
		e.metrics.ObserveTool(def.ID, res.StatusCode, start)
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := e.newRequest(ctx, toolID, params, def)
	if err != nil {
		l.Warn().Err(err).Msg("unable to build request")
		return failure(http.StatusInternalServerError, fmt.Sprintf("Execution failed: %v", err))
	}

	l.Debug().Str("method", req.Method).Str("url", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path).Msg("calling tool")
	resp, err := e.client.Do(req)
	if err != nil {
		res = e.transportFailure(err)
		l.Warn().Err(err).Int(logger.StatusField, res.StatusCode).Msg("tool request failed")
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		res = e.transportFailure(err)
		l.Warn().Err(err).Int(logger.StatusField, res.StatusCode).Msg("unable to read tool response")
		return res
	}

	res = parseResponse(resp.StatusCode, body)
	l.Debug().Int(logger.StatusField, res.StatusCode).Bool("success", res.Success).Msg("tool responded")
	return res
}

func (e *Executor) transportFailure(err error) models.ExecutionResult {
	switch {
	case isTimeout(err):
		return failure(http.StatusRequestTimeout, fmt.Sprintf("Request timeout after %v", e.timeout))
	case isConnection(err):
		return failure(http.StatusServiceUnavailable, fmt.Sprintf("Connection failed: %v", err))
	default:
		return failure(http.StatusInternalServerError, fmt.Sprintf("Execution failed: %v", err))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnection(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func failure(status int, msg string) models.ExecutionResult {
	return models.ExecutionResult{Success: false, StatusCode: status, Error: msg}
}
