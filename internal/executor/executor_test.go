package executor

import (
	"context"
	"encoding/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-toolrouter/pkg/metrics"
	"go-toolrouter/pkg/models"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

type captured struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// recorder is an httptest server that remembers every request and replies with a fixed response.
type recorder struct {
	*httptest.Server
	mu       sync.Mutex
	requests []captured
}

func newRecorder(t *testing.T, status int, body string) *recorder {
	t.Helper()
	r := &recorder{}
	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.requests = append(r.requests, captured{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
			Body:   b,
		})
		r.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(r.Close)
	return r
}

func (r *recorder) last(t *testing.T) captured {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func newExecutor() *Executor {
	return New(Config{Timeout: 2 * time.Second, UserAgent: "toolrouter-test/1.0"})
}

func TestExecute_GetQueryOnlyDeclared(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{"balance": 5}`)
	def := models.ToolDefinition{
		ID:         "get_balance",
		Method:     "GET",
		URL:        srv.URL + "/balance",
		Parameters: []models.Parameter{{Name: "amount", Type: models.ParamQuery}},
	}

	res := newExecutor().Execute(context.Background(), def.ID, map[string]any{"amount": 5.0, "unused": "z"}, def)

	require.True(t, res.Success)
	req := srv.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, url.Values{"amount": {"5"}}, req.Query)
	assert.Empty(t, req.Body)
}

func TestExecute_GetKeepsTemplateQuery(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	def := models.ToolDefinition{
		Method:     "get",
		URL:        srv.URL + "/reports?format=csv&month={{month}}",
		Parameters: []models.Parameter{{Name: "month", Type: models.ParamQuery}},
	}

	res := newExecutor().Execute(context.Background(), "export", map[string]any{"month": "2024-05"}, def)

	require.True(t, res.Success)
	assert.Equal(t, url.Values{"format": {"csv"}, "month": {"2024-05"}}, srv.last(t).Query)
}

func TestExecute_PostPermissiveBody(t *testing.T) {
	srv := newRecorder(t, http.StatusCreated, `{"id": 42}`)
	def := models.ToolDefinition{Method: "POST", URL: srv.URL + "/things", BodyType: models.BodyRaw}

	res := newExecutor().Execute(context.Background(), "create", map[string]any{"a": 1.0, "b": 2.0}, def)

	require.True(t, res.Success)
	assert.Equal(t, 201, res.StatusCode)
	assert.Equal(t, map[string]any{"id": 42.0}, res.Data)
	assert.Empty(t, res.Error)
	assert.JSONEq(t, `{"a":1,"b":2}`, string(srv.last(t).Body))
}

func TestExecute_PostExcludesPathAndQuery(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	def := models.ToolDefinition{
		Method: "PUT",
		URL:    srv.URL + "/users/{user_id}",
		Parameters: []models.Parameter{
			{Name: "user_id", Type: models.ParamPath},
			{Name: "notify", Type: models.ParamQuery},
		},
	}

	newExecutor().Execute(context.Background(), "update_user", map[string]any{"user_id": "u1", "notify": true, "email": "a@b.c"}, def)

	req := srv.last(t)
	assert.Equal(t, "/users/u1", req.Path)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(req.Body))
	assert.Empty(t, req.Query, "query params are GET only")
}

func TestExecute_PostDeclaredBodyOnly(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	def := models.ToolDefinition{
		Method: "PATCH",
		URL:    srv.URL + "/invoices",
		Parameters: []models.Parameter{
			{Name: "amount", Type: models.ParamBody},
			{Name: "currency", Type: models.ParamBody},
		},
	}

	newExecutor().Execute(context.Background(), "patch_invoice", map[string]any{"amount": 50.0, "extra": "x"}, def)

	assert.JSONEq(t, `{"amount":50}`, string(srv.last(t).Body), "absent declared params are omitted, extras dropped")
}

func TestExecute_FormData(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	def := models.ToolDefinition{
		Method:   "POST",
		URL:      srv.URL + "/upload",
		BodyType: models.BodyFormData,
		Parameters: []models.Parameter{
			{Name: "name", Type: models.ParamFormData},
			{Name: "size", Type: models.ParamFormData},
		},
	}

	newExecutor().Execute(context.Background(), "upload", map[string]any{"name": "doc", "size": 3.0, "skip": "me"}, def)

	req := srv.last(t)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	form, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, url.Values{"name": {"doc"}, "size": {"3"}}, form)
}

func TestExecute_Headers(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	def := models.ToolDefinition{
		Method: "DELETE",
		URL:    srv.URL + "/users/:id",
		Headers: []models.Header{
			{Key: "X-Tenant", Value: "{{tenant}}-{region}"},
			{Key: "X-Empty", Value: ""},
			{Key: "X-Bad", Value: "{inject}"},
		},
	}
	params := map[string]any{
		"id":         "9",
		"tenant":     "acme",
		"region":     "eu",
		"auth_token": "tok",
		"api_key":    "key",
		"inject":     "a\r\nX-Evil: 1",
	}

	res := newExecutor().Execute(context.Background(), "delete_user", params, def)

	require.True(t, res.Success)
	req := srv.last(t)
	assert.Equal(t, "/users/9", req.Path)
	assert.Equal(t, "acme-eu", req.Header.Get("X-Tenant"))
	assert.Equal(t, "Bearer key", req.Header.Get("Authorization"), "api_key wins over auth_token")
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "toolrouter-test/1.0", req.Header.Get("User-Agent"))
	assert.Empty(t, req.Header.Get("X-Empty"))
	assert.Empty(t, req.Header.Get("X-Bad"))
	assert.Empty(t, req.Header.Get("X-Evil"))
	assert.Empty(t, req.Body)
}

func TestExecute_NoHeaderLeakBetweenCalls(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	def := models.ToolDefinition{Method: "GET", URL: srv.URL + "/me"}
	e := newExecutor()

	e.Execute(context.Background(), "me", map[string]any{"auth_token": "first"}, def)
	assert.Equal(t, "Bearer first", srv.last(t).Header.Get("Authorization"))

	e.Execute(context.Background(), "me", map[string]any{}, def)
	assert.Empty(t, srv.last(t).Header.Get("Authorization"))
}

func TestExecute_HTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"404 canned", 404, `not json`, "Not Found - Resource doesn't exist"},
		{"400 enriched with error", 400, `{"error": "invalid email"}`, "Bad Request - Invalid parameters: invalid email"},
		{"401 enriched with message", 401, `{"message": "token expired"}`, "Unauthorized - Authentication required: token expired"},
		{"error wins over message", 429, `{"error": "slow down", "message": "ignored"}`, "Rate Limit Exceeded - Too many requests: slow down"},
		{"generic status", 418, `{}`, "Request failed with status 418"},
		{"503", 503, ``, "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRecorder(t, tt.status, tt.body)
			def := models.ToolDefinition{Method: "GET", URL: srv.URL}

			res := newExecutor().Execute(context.Background(), "t", nil, def)

			assert.False(t, res.Success)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, tt.want, res.Error)
		})
	}
}

func TestExecute_RawResponseFallback(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, "plain text")
	def := models.ToolDefinition{Method: "GET", URL: srv.URL}

	res := newExecutor().Execute(context.Background(), "t", nil, def)

	require.True(t, res.Success)
	assert.Equal(t, map[string]any{"raw_response": "plain text"}, res.Data)
}

func TestExecute_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	e := New(Config{Timeout: 50 * time.Millisecond, UserAgent: "t"})
	res := e.Execute(context.Background(), "slow", nil, models.ToolDefinition{Method: "GET", URL: srv.URL})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusRequestTimeout, res.StatusCode)
	assert.Contains(t, res.Error, "timeout")
}

func TestExecute_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res := newExecutor().Execute(context.Background(), "down", nil, models.ToolDefinition{Method: "GET", URL: addr})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Contains(t, res.Error, "Connection failed")
}

func TestExecute_MissingDefinition(t *testing.T) {
	res := newExecutor().Execute(context.Background(), "ghost", map[string]any{"a": 1}, models.ToolDefinition{})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, res.Error, "not found")
}

func TestExecute_MetricsLabelledByCatalogID(t *testing.T) {
	srv := newRecorder(t, http.StatusOK, `{}`)
	m := metrics.New(prometheus.NewRegistry())
	e := New(Config{Timeout: 2 * time.Second}, WithMetrics(m))
	def := models.ToolDefinition{ID: "get_balance", Method: "GET", URL: srv.URL + "/balance"}

	e.Execute(context.Background(), "get_balance", nil, def)
	e.Execute(context.Background(), "made_up_tool", nil, models.ToolDefinition{})
	e.Execute(context.Background(), "another_guess", nil, models.ToolDefinition{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolRequests.WithLabelValues("get_balance", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolRequests.WithLabelValues(metrics.UnknownTool, "500")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ToolRequests))
}

func TestExecute_UnencodableBody(t *testing.T) {
	def := models.ToolDefinition{Method: "POST", URL: "http://127.0.0.1:1/x"}

	res := newExecutor().Execute(context.Background(), "bad", map[string]any{"ch": make(chan int)}, def)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, res.Error, "Execution failed")
}

func TestParseResponse(t *testing.T) {
	res := parseResponse(201, []byte(`{"id":42}`))
	assert.True(t, res.Success)
	assert.Equal(t, 201, res.StatusCode)
	assert.Equal(t, map[string]any{"id": 42.0}, res.Data)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"status_code":201,"data":{"id":42}}`, string(b))
}
