package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miniapp-agency/portal/internal/logctx"
	"github.com/miniapp-agency/portal/notify"
)

const (
	// DefaultTimeout bounds every request end to end.
	DefaultTimeout = 10 * time.Second

	// HeaderRequestID is sent on every request and echoed into logs and
	// notifications.
	HeaderRequestID = "X-Request-Id"

	maxBodyBytes = 4 << 20
	sourceName   = "gateway"
)

// ResponseClassifier inspects successful responses for side effects. Match
// sees the request method and the path exactly as passed to [Client.Do];
// OnSuccess receives the raw response body and runs before Do returns.
type ResponseClassifier interface {
	Match(method, path string) bool
	OnSuccess(ctx context.Context, body []byte) error
}

// Options configures a [Client].
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Notifier   notify.Notifier
	Logger     *slog.Logger
	UserAgent  string
}

// Response is a successful (2xx) backend response.
type Response struct {
	HTTPStatus int
	RequestID  string
	Body       []byte
}

// Client is the shared backend client. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	notifier  notify.Notifier
	logger    *slog.Logger
	userAgent string

	mu          sync.RWMutex
	token       string
	classifiers []ResponseClassifier
}

// New builds a client. The timeout defaults to [DefaultTimeout]; a supplied
// HTTPClient is copied so its own Timeout is overridden without mutating the
// caller's value.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base URL is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	hc.Timeout = timeout

	n := opts.Notifier
	if n == nil {
		n = notify.NoOpNotifier{}
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	return &Client{
		baseURL:   base,
		http:      hc,
		notifier:  n,
		logger:    l,
		userAgent: opts.UserAgent,
	}, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the fixed per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// SetToken replaces the in-memory bearer token. An empty token disables the
// Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the in-memory bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// AddClassifier registers a success-path classifier. Classifiers run in
// registration order.
func (c *Client) AddClassifier(rc ResponseClassifier) {
	if rc == nil {
		return
	}
	c.mu.Lock()
	c.classifiers = append(c.classifiers, rc)
	c.mu.Unlock()
}

type requestIDKey struct{}

// WithRequestID pins the request ID used for calls made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type errorMessageKey struct{}

// WithErrorMessage replaces the text of the error notification for backend
// rejections made with ctx. Transport failures keep their own text so a
// timeout is never reported as something else.
func WithErrorMessage(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, errorMessageKey{}, msg)
}

func requestIDFrom(ctx context.Context) string {
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		return id
	}
	return uuid.NewString()
}

// Do sends a request with an optional JSON body. Non-2xx responses return an
// *[APIError]; failures without a response return a *[TransportError]. Both
// have already been notified (except 422) by the time Do returns.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rid := requestIDFrom(ctx)
	l := logctx.FromOr(ctx, c.logger).With(
		slog.String("request_id", rid),
		slog.String("method", method),
		slog.String("path", path),
	)

	start := time.Now()
	resp, err := c.do(ctx, rid, method, path, body)
	dur := time.Since(start)

	if err != nil {
		status := StatusCode(err)
		l.LogAttrs(ctx, slog.LevelWarn, "http",
			slog.Int("status", status),
			slog.Duration("dur", dur),
			slog.String("error", err.Error()),
		)
		c.notifyError(ctx, rid, err)
		return nil, err
	}

	l.LogAttrs(ctx, slog.LevelInfo, "http",
		slog.Int("status", resp.HTTPStatus),
		slog.Duration("dur", dur),
		slog.Int("bytes", len(resp.Body)),
	)

	if err := c.classify(ctx, method, path, resp.Body); err != nil {
		l.WarnContext(ctx, "gateway: response hook failed", slog.String("error", err.Error()))
		return nil, err
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, rid, method, path string, body any) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: "encode request", Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ensureLeadingSlash(path), reqBody)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, rid)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: httpResp.StatusCode, RequestID: rid}
		// Non-JSON bodies (proxy error pages) keep the zero envelope.
		_ = json.Unmarshal(data, apiErr)
		apiErr.HTTPStatus = httpResp.StatusCode
		apiErr.RequestID = rid
		return nil, apiErr
	}

	return &Response{
		HTTPStatus: httpResp.StatusCode,
		RequestID:  rid,
		Body:       data,
	}, nil
}

func (c *Client) classify(ctx context.Context, method, path string, body []byte) error {
	c.mu.RLock()
	classifiers := make([]ResponseClassifier, len(c.classifiers))
	copy(classifiers, c.classifiers)
	c.mu.RUnlock()

	for _, rc := range classifiers {
		if !rc.Match(method, path) {
			continue
		}
		if err := rc.OnSuccess(ctx, body); err != nil {
			return fmt.Errorf("%w: %w", ErrResponseHook, err)
		}
	}
	return nil
}

func (c *Client) notifyError(ctx context.Context, rid string, err error) {
	if IsValidation(err) {
		return
	}
	msg := Message(err)
	var apiErr *APIError
	if override, _ := ctx.Value(errorMessageKey{}).(string); override != "" && errors.As(err, &apiErr) {
		msg = override
	}
	c.notifier.Notify(ctx, notify.Notification{
		Timestamp: time.Now().UTC(),
		Level:     notify.LevelError,
		Message:   msg,
		Source:    sourceName,
		RequestID: rid,
	})
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
