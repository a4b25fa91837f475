package portal

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/notify"
	"github.com/miniapp-agency/portal/session"
	"github.com/miniapp-agency/portal/workflow"
)

func TestLoginThenCheckCode(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	profile := &session.UserProfile{ID: "1", Email: "a@b.com"}
	te.backend.on(PathLogin, http.StatusOK, ok(nil))
	te.backend.on(PathCheckCode, http.StatusOK, authData("tok123", profile))

	require.NoError(t, te.Login(ctx, "a@b.com", "x"))
	require.Equal(t, workflow.AwaitingCode{Email: "a@b.com"}, te.LoginState())
	require.False(t, te.Snapshot().IsAuthenticated)
	require.Equal(t, []string{msgCodeSent}, levels(te.notified, notify.LevelSuccess))

	res, err := te.CheckCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	require.Equal(t, guard.RouteHome, res.Redirect)
	require.Equal(t, profile, res.Profile)

	require.Equal(t, workflow.Authenticated{Email: "a@b.com"}, te.LoginState())
	snap := te.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "a@b.com", snap.Email())
	require.Equal(t, guard.Decision{Allow: true}, guard.AuthenticatedOnly(snap))

	require.Equal(t, "tok123", te.Store().ReadToken(ctx))
	require.Equal(t, profile, te.Store().ReadProfile(ctx))
	require.Equal(t, "tok123", te.Client().Token())

	login := te.backend.calls(PathLogin)
	require.Len(t, login, 1)
	require.Equal(t, map[string]string{"email": "a@b.com", "password": "x"}, login[0].Body)
	require.Empty(t, login[0].Auth)

	check := te.backend.calls(PathCheckCode)
	require.Len(t, check, 1)
	require.Equal(t, map[string]string{"email": "a@b.com", "code": "123456"}, check[0].Body)

	snapMetrics := te.MetricsSnapshot()
	require.Equal(t, uint64(1), snapMetrics.Counters[MetricLoginSuccess])
	require.Equal(t, uint64(1), snapMetrics.Counters[MetricCodeCheckSuccess])
	require.Equal(t, uint64(1), snapMetrics.Counters[MetricSessionCreated])
}

func TestTokenAttachedAfterSignIn(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathCheckCode, http.StatusOK, authData("tok123", &session.UserProfile{ID: "1", Email: "a@b.com"}))
	te.backend.on(PathProfile, http.StatusOK, ok(&session.UserProfile{ID: "1", Email: "a@b.com", Name: "Ann"}))

	_, err := te.CheckCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)

	p, err := te.RefreshProfile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ann", p.Name)
	require.Equal(t, "Ann", te.Snapshot().Profile.Name)
	require.Equal(t, "Ann", te.Store().ReadProfile(ctx).Name)

	calls := te.backend.calls(PathProfile)
	require.Len(t, calls, 1)
	require.Equal(t, "Bearer tok123", calls[0].Auth)
}

func TestCheckCodeFailureLeavesSessionEmpty(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathLogin, http.StatusOK, ok(nil))
	te.backend.on(PathCheckCode, http.StatusBadRequest, apiError(http.StatusBadRequest, "code expired", nil))

	require.NoError(t, te.Login(ctx, "a@b.com", "x"))

	_, err := te.CheckCode(ctx, "a@b.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	require.Equal(t, http.StatusBadRequest, gateway.StatusCode(err))

	require.Equal(t, workflow.AwaitingCode{Email: "a@b.com"}, te.LoginState())
	require.False(t, te.Snapshot().IsAuthenticated)
	require.Equal(t, "", te.Store().ReadToken(ctx))
	require.Nil(t, te.Store().ReadProfile(ctx))
	require.Equal(t, 0, te.storage.Len())
	require.Equal(t, []string{msgInvalidCode}, levels(te.notified, notify.LevelError))
}

func TestCheckCodeWithoutTokenIsRejected(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathCheckCode, http.StatusOK, ok(map[string]any{"user": map[string]any{"id": 1}}))

	_, err := te.CheckCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrInvalidCode)
	require.ErrorIs(t, err, gateway.ErrResponseHook)
	require.ErrorIs(t, err, ErrMalformedAuthResponse)
	require.False(t, te.Snapshot().IsAuthenticated)
	require.Equal(t, []string{msgUnexpectedResponse}, levels(te.notified, notify.LevelError))
}

func TestLoginFailureIsGeneric(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathLogin, http.StatusUnauthorized, apiError(http.StatusUnauthorized, "no such user", nil))

	err := te.Login(ctx, "a@b.com", "x")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	require.Equal(t, workflow.Failed{Reason: "no such user"}, te.LoginState())
	require.Equal(t, []string{msgAuthFailed}, levels(te.notified, notify.LevelError))
	require.Equal(t, uint64(1), te.MetricsSnapshot().Counters[MetricLoginFailure])
}

func TestLoginTransportFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.srv.Close()

	err := te.Login(ctx, "a@b.com", "x")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	var tErr *gateway.TransportError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, workflow.AwaitingCredentials{}, te.LoginState())
	require.Len(t, levels(te.notified, notify.LevelError), 1)
}

func TestLoginCapturesTokenWhenIssued(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathLogin, http.StatusOK, authData("pre-tok", nil))

	require.NoError(t, te.Login(ctx, "a@b.com", "x"))
	require.Equal(t, "pre-tok", te.Store().ReadToken(ctx))
	require.Equal(t, "pre-tok", te.Client().Token())
	require.False(t, te.Snapshot().IsAuthenticated)
}

func TestResendCodeNotificationCounts(t *testing.T) {
	ctx := context.Background()

	t.Run("422 is not notified", func(t *testing.T) {
		te := newTestEngine(t)
		te.backend.on(PathResendCode, http.StatusUnprocessableEntity,
			apiError(http.StatusUnprocessableEntity, "invalid", map[string]any{"email": []string{"must be an email"}}))

		err := te.ResendCode(ctx, "not-an-email")
		require.ErrorIs(t, err, ErrResendFailed)
		require.True(t, gateway.IsValidation(err))
		require.Equal(t, map[string]string{"email": "must be an email"}, gateway.FieldErrors(err))
		require.Equal(t, 0, te.notified.Len())
		require.Equal(t, uint64(1), te.MetricsSnapshot().Counters[MetricValidationRejected])
	})

	t.Run("500 is notified once", func(t *testing.T) {
		te := newTestEngine(t)
		te.backend.on(PathResendCode, http.StatusInternalServerError, apiError(http.StatusInternalServerError, "mailer down", nil))

		err := te.ResendCode(ctx, "a@b.com")
		require.ErrorIs(t, err, ErrResendFailed)
		require.Equal(t, 1, te.notified.Len())
		require.Equal(t, []string{"mailer down"}, levels(te.notified, notify.LevelError))
	})

	t.Run("success is notified and keeps state", func(t *testing.T) {
		te := newTestEngine(t)
		te.backend.on(PathLogin, http.StatusOK, ok(nil))
		te.backend.on(PathResendCode, http.StatusOK, ok(nil))

		require.NoError(t, te.Login(ctx, "a@b.com", "x"))
		require.NoError(t, te.ResendCode(ctx, "a@b.com"))
		require.Equal(t, workflow.AwaitingCode{Email: "a@b.com"}, te.LoginState())
		require.Equal(t, []string{msgCodeSent, msgCodeResent}, levels(te.notified, notify.LevelSuccess))
	})
}

func TestForgotPasswordFlow(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathRequestPasswordReset, http.StatusOK, ok(nil))
	te.backend.on(PathForgotPassword, http.StatusOK, ok(&session.UserProfile{ID: "3", Email: "a@b.com"}))

	require.Equal(t, workflow.ResetAwaitingEmail{}, te.ResetState())
	require.NoError(t, te.RequestForgotPassword(ctx, "a@b.com"))
	require.Equal(t, workflow.ResetAwaitingCode{Email: "a@b.com"}, te.ResetState())
	require.Equal(t, workflow.AwaitingCredentials{}, te.LoginState())

	res, err := te.ForgotPassword(ctx, "a@b.com", "654321", "new-secret")
	require.NoError(t, err)
	require.Equal(t, guard.RouteLogin, res.Redirect)
	require.Equal(t, session.UserID("3"), res.Profile.ID)
	require.Equal(t, workflow.ResetCompleted{Email: "a@b.com"}, te.ResetState())
	require.False(t, te.Snapshot().IsAuthenticated)

	calls := te.backend.calls(PathForgotPassword)
	require.Len(t, calls, 1)
	require.Equal(t, map[string]string{"email": "a@b.com", "code": "654321", "password": "new-secret"}, calls[0].Body)
}

func TestForgotPasswordRejected(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathRequestPasswordReset, http.StatusOK, ok(nil))
	te.backend.on(PathForgotPassword, http.StatusBadRequest, apiError(http.StatusBadRequest, "bad code", nil))

	require.NoError(t, te.RequestForgotPassword(ctx, "a@b.com"))
	_, err := te.ForgotPassword(ctx, "a@b.com", "1", "pw")
	require.ErrorIs(t, err, ErrResetFailed)
	require.Equal(t, workflow.ResetAwaitingCode{Email: "a@b.com"}, te.ResetState())
	require.Equal(t, []string{"bad code"}, levels(te.notified, notify.LevelError))
}

func TestLogoutTwice(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathCheckCode, http.StatusOK, authData("tok123", &session.UserProfile{ID: "1", Email: "a@b.com"}))

	_, err := te.CheckCode(ctx, "a@b.com", "123456")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, te.Logout(ctx))
		require.False(t, te.Snapshot().IsAuthenticated)
		require.Nil(t, te.Snapshot().Profile)
		require.Equal(t, "", te.Store().ReadToken(ctx))
		require.Nil(t, te.Store().ReadProfile(ctx))
		require.Equal(t, "", te.Client().Token())
		require.Equal(t, workflow.AwaitingCredentials{}, te.LoginState())
	}
	require.Equal(t, []string{msgSignedOut}, levels(te.notified, notify.LevelSuccess))
	require.Equal(t, uint64(2), te.MetricsSnapshot().Counters[MetricLogout])
}

func TestRefreshProfileRequiresSession(t *testing.T) {
	te := newTestEngine(t)
	_, err := te.RefreshProfile(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Empty(t, te.backend.calls(PathProfile))
}

func TestRefreshProfileUnauthorizedSignsOut(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	require.NoError(t, te.Store().Save(ctx, "stale", &session.UserProfile{ID: "1", Email: "a@b.com"}))
	te.backend.on(PathProfile, http.StatusUnauthorized, apiError(http.StatusUnauthorized, "token expired", nil))

	require.True(t, te.Restore(ctx).IsAuthenticated)
	require.Equal(t, "stale", te.Client().Token())

	_, err := te.RefreshProfile(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.False(t, te.Snapshot().IsAuthenticated)
	require.Equal(t, "", te.Store().ReadToken(ctx))
}

// profileRejectingStorage accepts every key except the profile.
type profileRejectingStorage struct {
	*session.MemoryStorage
}

func (s profileRejectingStorage) Set(ctx context.Context, key, value string) error {
	if key == session.ProfileKey {
		return errors.New("disk full")
	}
	return s.MemoryStorage.Set(ctx, key, value)
}

func buildEngine(t *testing.T, baseURL string, storage session.Storage) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Notify.Async = false

	e, err := New().
		WithConfig(cfg).
		WithStorage(storage).
		WithNotifier(&notify.Recorder{}).
		WithLogger(silentLogger()).
		Build()
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestCheckCodePersistFailureLeavesNoToken(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend(t)
	fb.on(PathCheckCode, http.StatusOK, authData("tok123", &session.UserProfile{ID: "1", Email: "a@b.com"}))

	mem := session.NewMemoryStorage()
	storage := profileRejectingStorage{mem}
	e := buildEngine(t, fb.srv.URL, storage)

	_, err := e.CheckCode(ctx, "a@b.com", "123456")
	require.ErrorIs(t, err, ErrInvalidCode)
	require.ErrorIs(t, err, ErrSessionPersist)
	require.False(t, e.Snapshot().IsAuthenticated)
	require.Equal(t, "", e.Store().ReadToken(ctx))
	require.Equal(t, 0, mem.Len())
	require.Equal(t, uint64(1), e.MetricsSnapshot().Counters[MetricSessionPersistFailure])

	restarted := buildEngine(t, fb.srv.URL, storage)
	require.False(t, restarted.Restore(ctx).IsAuthenticated)
}

func TestRestoreWithoutSession(t *testing.T) {
	te := newTestEngine(t)
	snap := te.Restore(context.Background())
	require.False(t, snap.IsAuthenticated)
	require.Equal(t, workflow.AwaitingCredentials{}, te.LoginState())
}

func TestInvalidInputSkipsBackend(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	require.ErrorIs(t, te.Login(ctx, " ", "x"), ErrInvalidInput)
	_, err := te.CheckCode(ctx, "a@b.com", "")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, te.ResendCode(ctx, ""), ErrInvalidInput)
	require.ErrorIs(t, te.RequestForgotPassword(ctx, ""), ErrInvalidInput)
	_, err = te.ForgotPassword(ctx, "a@b.com", "1", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Equal(t, 0, te.backend.total())
	require.Equal(t, 0, te.notified.Len())
}

func TestPendingTracksInFlightCalls(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	te.backend.on(PathResendCode, http.StatusOK, ok(nil))
	te.backend.hold(func() {
		entered <- struct{}{}
		<-release
	})

	errs := make(chan error, 1)
	go func() { errs <- te.ResendCode(ctx, "a@b.com") }()

	<-entered
	require.True(t, te.Pending(OpResendCode))
	require.Equal(t, 1, te.PendingCount(OpResendCode))
	require.False(t, te.Pending(OpLogin))

	close(release)
	require.NoError(t, <-errs)
	require.False(t, te.Pending(OpResendCode))
	require.False(t, te.Pending(opCount))
}

func TestAsyncNotificationsFlushOnClose(t *testing.T) {
	fb := newFakeBackend(t)
	fb.on(PathResendCode, http.StatusInternalServerError, apiError(http.StatusInternalServerError, "boom", nil))
	rec := &notify.Recorder{}

	e, err := New().
		WithBaseURL(fb.srv.URL).
		WithNotifier(rec).
		WithLogger(silentLogger()).
		Build()
	require.NoError(t, err)

	require.Error(t, e.ResendCode(context.Background(), "a@b.com"))
	e.Close()
	e.Close()

	require.Equal(t, 1, rec.Len())
	require.Equal(t, uint64(0), e.NotifyDropped())
}

func TestErrorsUnwrapToGateway(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.backend.on(PathLogin, http.StatusForbidden, apiError(http.StatusForbidden, "locked", nil))

	err := te.Login(ctx, "a@b.com", "x")
	var apiErr *gateway.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "locked", apiErr.Message)
}
