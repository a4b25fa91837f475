package portal

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miniapp-agency/portal/notify"
	"github.com/miniapp-agency/portal/session"
)

type fakeResponse struct {
	status int
	body   any
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]string
}

// fakeBackend serves canned responses per path and records every request.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []recordedRequest
	before    func()
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, responses: map[string]fakeResponse{}}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) on(path string, status int, body any) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[path] = fakeResponse{status: status, body: body}
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	resp, ok := fb.responses[r.URL.Path]
	before := fb.before
	fb.mu.Unlock()

	if before != nil {
		before()
	}

	if !ok {
		resp = fakeResponse{status: http.StatusNotFound, body: map[string]any{"status": 404, "message": "not found"}}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_ = json.NewEncoder(w).Encode(resp.body)
}

// hold runs fn inside the handler before every response.
func (fb *fakeBackend) hold(fn func()) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.before = fn
}

func (fb *fakeBackend) total() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.requests)
}

func (fb *fakeBackend) calls(path string) []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []recordedRequest
	for _, r := range fb.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func ok(data any) map[string]any {
	return map[string]any{"status": 200, "message": "ok", "data": data}
}

func apiError(status int, msg string, data any) map[string]any {
	body := map[string]any{"status": status, "message": msg, "error": http.StatusText(status)}
	if data != nil {
		body["data"] = data
	}
	return body
}

func authData(token string, user *session.UserProfile) map[string]any {
	return ok(map[string]any{"accessToken": token, "user": user})
}

type testEngine struct {
	*Engine
	backend  *fakeBackend
	storage  *session.MemoryStorage
	notified *notify.Recorder
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds an engine with synchronous notifications so tests
// can count them without waiting on the dispatcher.
func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	fb := newFakeBackend(t)
	storage := session.NewMemoryStorage()
	rec := &notify.Recorder{}

	cfg := DefaultConfig()
	cfg.API.BaseURL = fb.srv.URL
	cfg.Admin.Email = "admin@gmail.com"
	cfg.Notify.Async = false
	cfg.Metrics.EnableLatencyHistograms = true

	e, err := New().
		WithConfig(cfg).
		WithStorage(storage).
		WithNotifier(rec).
		WithLogger(silentLogger()).
		Build()
	require.NoError(t, err)
	t.Cleanup(e.Close)

	return &testEngine{Engine: e, backend: fb, storage: storage, notified: rec}
}

func levels(rec *notify.Recorder, level notify.Level) []string {
	var out []string
	for _, n := range rec.All() {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}
