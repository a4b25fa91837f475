package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miniapp-agency/portal/authstate"
	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/internal/logctx"
	"github.com/miniapp-agency/portal/notify"
	"github.com/miniapp-agency/portal/session"
	"github.com/miniapp-agency/portal/workflow"
)

const notifySource = "auth"

// Engine runs the portal auth workflows against the backend and keeps the
// session store, the gateway token and the auth context in step.
//
// Engine methods are safe for concurrent use. Identical operations are not
// deduplicated; use Pending to disable a submit control while a call is in
// flight.
type Engine struct {
	config     Config
	client     *gateway.Client
	store      *session.Store
	auth       *authstate.State
	admin      guard.AdminPolicy
	notifier   notify.Notifier
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
	metrics    *Metrics

	login *workflow.Machine
	reset *workflow.Machine

	pending   [opCount]atomic.Int64
	closeOnce sync.Once
}

// Close flushes pending notifications. The engine must not be used after
// Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.dispatcher != nil {
			e.dispatcher.Close()
		}
	})
}

// Restore loads the persisted session into the gateway and the auth
// context. A stored token is trusted until the backend rejects it.
func (e *Engine) Restore(ctx context.Context) authstate.Snapshot {
	token := e.store.ReadToken(ctx)
	e.client.SetToken(token)
	snap := e.auth.Load(ctx, e.store)
	if snap.IsAuthenticated {
		_, _ = e.login.Apply(workflow.CodeAccepted{Email: snap.Email()})
	}
	logctx.FromOr(ctx, e.logger).DebugContext(ctx, "session restored",
		slog.Bool("authenticated", snap.IsAuthenticated),
		slog.String("email", logctx.Email(snap.Email())),
	)
	return snap
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Client returns the shared backend client.
func (e *Engine) Client() *gateway.Client {
	return e.client
}

// Store returns the persisted session store.
func (e *Engine) Store() *session.Store {
	return e.store
}

// AuthState returns the auth context the engine mutates.
func (e *Engine) AuthState() *authstate.State {
	return e.auth
}

// Snapshot is shorthand for AuthState().Snapshot().
func (e *Engine) Snapshot() authstate.Snapshot {
	return e.auth.Snapshot()
}

// AdminPolicy returns the configured administrator policy.
func (e *Engine) AdminPolicy() guard.AdminPolicy {
	return e.admin
}

// LoginState returns the current login workflow state.
func (e *Engine) LoginState() workflow.State {
	return e.login.Current()
}

// ResetState returns the current password-reset workflow state.
func (e *Engine) ResetState() workflow.State {
	return e.reset.Current()
}

// Pending reports whether at least one call of op is in flight.
func (e *Engine) Pending(op Operation) bool {
	return e.PendingCount(op) > 0
}

// PendingCount reports how many calls of op are in flight.
func (e *Engine) PendingCount(op Operation) int {
	if op >= opCount {
		return 0
	}
	return int(e.pending[op].Load())
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// NotifyDropped reports notifications discarded by a full async buffer.
func (e *Engine) NotifyDropped() uint64 {
	if e == nil || e.dispatcher == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) begin(op Operation) func() {
	e.pending[op].Add(1)
	return func() { e.pending[op].Add(-1) }
}

func (e *Engine) post(ctx context.Context, path string, body any) (*gateway.Response, error) {
	return e.send(ctx, http.MethodPost, path, body)
}

func (e *Engine) send(ctx context.Context, method, path string, body any) (*gateway.Response, error) {
	start := time.Now()
	resp, err := e.client.Do(ctx, method, path, body)
	e.metrics.Observe(MetricRequestLatency, time.Since(start))
	if gateway.IsValidation(err) {
		e.metricInc(MetricValidationRejected)
	}
	return resp, err
}

// apply moves m and logs rejected transitions. A rejected transition leaves
// the workflow where it was; the backend outcome still stands.
func (e *Engine) apply(ctx context.Context, m *workflow.Machine, ev workflow.Event) workflow.State {
	next, err := m.Apply(ev)
	if err != nil {
		logctx.FromOr(ctx, e.logger).WarnContext(ctx, "workflow transition rejected",
			slog.String("event", ev.String()),
			slog.String("state", next.String()),
		)
	}
	return next
}

func (e *Engine) success(ctx context.Context, msg string) {
	notify.Success(ctx, e.notifier, notifySource, msg)
}

// onHookFailure reports a successful response the engine could not use.
// The gateway does not notify these, so the engine does.
func (e *Engine) onHookFailure(ctx context.Context, err error) {
	if !errors.Is(err, gateway.ErrResponseHook) {
		return
	}
	notify.Error(ctx, e.notifier, notifySource, msgUnexpectedResponse)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// rejectedByBackend reports whether err carries an HTTP response, as
// opposed to a transport failure where the outcome is unknown.
func rejectedByBackend(err error) bool {
	return gateway.StatusCode(err) != 0
}

func reasonOf(err error) string {
	if msg := gateway.Message(err); msg != "" {
		return msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
