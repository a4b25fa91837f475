package portal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/internal/logctx"
	"github.com/miniapp-agency/portal/workflow"
)

// Login submits the first factor. On success the backend emails a one-time
// code and the login workflow waits for it.
//
// Every backend rejection is reported as ErrAuthenticationFailed with the
// same notification text, so a caller cannot tell an unknown email from a
// wrong password. The underlying gateway error stays reachable through
// errors.As; 422 responses are not notified so their field errors can be
// shown next to the form.
func (e *Engine) Login(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	done := e.begin(OpLogin)
	defer done()

	l := logctx.FromOr(ctx, e.logger).With(slog.String("email", logctx.Email(email)))

	_, err := e.post(gateway.WithErrorMessage(ctx, msgAuthFailed), PathLogin, loginRequest{Email: email, Password: password})
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.onHookFailure(ctx, err)
		if rejectedByBackend(err) {
			e.apply(ctx, e.login, workflow.CredentialsRejected{Reason: reasonOf(err)})
		}
		l.InfoContext(ctx, "login rejected", slog.Int("status", gateway.StatusCode(err)))
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	e.metricInc(MetricLoginSuccess)
	next := e.apply(ctx, e.login, workflow.CredentialsAccepted{Email: email})
	e.success(ctx, msgCodeSent)
	l.InfoContext(ctx, "login accepted", slog.String("state", next.String()))
	return nil
}

// CheckCode submits the one-time code. On success the session has already
// been persisted by the time the auth context flips to authenticated, and
// the result tells the caller to go home.
//
// On failure nothing is written, the auth context is untouched and the
// workflow stays in (or moves to) AwaitingCode for email.
func (e *Engine) CheckCode(ctx context.Context, email, code string) (*CheckCodeResult, error) {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and code are required", ErrInvalidInput)
	}

	done := e.begin(OpCheckCode)
	defer done()

	l := logctx.FromOr(ctx, e.logger).With(slog.String("email", logctx.Email(email)))

	resp, err := e.post(gateway.WithErrorMessage(ctx, msgInvalidCode), PathCheckCode, checkCodeRequest{Email: email, Code: code})
	if err != nil {
		e.metricInc(MetricCodeCheckFailure)
		e.onHookFailure(ctx, err)
		if rejectedByBackend(err) {
			e.apply(ctx, e.login, workflow.CodeRejected{Email: email, Reason: reasonOf(err)})
		}
		l.InfoContext(ctx, "code rejected", slog.Int("status", gateway.StatusCode(err)))
		return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}

	// The capture classifier already validated and stored this payload.
	payload, err := decodeAuthPayload(resp.Body)
	if err != nil {
		e.metricInc(MetricCodeCheckFailure)
		return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}

	e.auth.SignIn(payload.User)
	e.apply(ctx, e.login, workflow.CodeAccepted{Email: email})
	e.metricInc(MetricCodeCheckSuccess)
	l.InfoContext(ctx, "signed in", slog.String("token", logctx.Token(payload.AccessToken)))

	return &CheckCodeResult{
		Profile:  payload.User.Clone(),
		Redirect: guard.RouteHome,
	}, nil
}

// ResendCode asks the backend to send a fresh login code to email. It never
// moves the login workflow.
func (e *Engine) ResendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	done := e.begin(OpResendCode)
	defer done()

	if _, err := e.post(ctx, PathResendCode, emailRequest{Email: email}); err != nil {
		e.metricInc(MetricCodeResendFailure)
		return fmt.Errorf("%w: %w", ErrResendFailed, err)
	}

	e.metricInc(MetricCodeResent)
	e.apply(ctx, e.login, workflow.CodeResent{Email: email})
	e.success(ctx, msgCodeResent)
	return nil
}
