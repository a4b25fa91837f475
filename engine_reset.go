package portal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/internal/logctx"
	"github.com/miniapp-agency/portal/session"
	"github.com/miniapp-agency/portal/workflow"
)

// RequestForgotPassword asks the backend to email a reset code and moves the
// reset workflow to ResetAwaitingCode. It runs independently of the login
// workflow.
func (e *Engine) RequestForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	done := e.begin(OpRequestForgotPassword)
	defer done()

	if _, err := e.post(ctx, PathRequestPasswordReset, emailRequest{Email: email}); err != nil {
		e.metricInc(MetricPasswordResetRequestFailure)
		return fmt.Errorf("%w: %w", ErrResetRequestFailed, err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.apply(ctx, e.reset, workflow.ResetRequested{Email: email})
	e.success(ctx, msgResetCodeSent)
	logctx.FromOr(ctx, e.logger).InfoContext(ctx, "password reset requested",
		slog.String("email", logctx.Email(email)),
	)
	return nil
}

// ForgotPassword sets a new password using the emailed code. On success the
// caller is sent to the login route; the user signs in with the new
// password.
func (e *Engine) ForgotPassword(ctx context.Context, email, code, newPassword string) (*ResetResult, error) {
	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return nil, fmt.Errorf("%w: email, code and password are required", ErrInvalidInput)
	}

	done := e.begin(OpForgotPassword)
	defer done()

	resp, err := e.post(ctx, PathForgotPassword, forgotPasswordRequest{Email: email, Code: code, Password: newPassword})
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		if rejectedByBackend(err) {
			e.apply(ctx, e.reset, workflow.ResetRejected{Email: email, Reason: reasonOf(err)})
		}
		return nil, fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	var profile *session.UserProfile
	if env, err := gateway.Decode[*session.UserProfile](resp.Body); err == nil {
		profile = env.Data
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.apply(ctx, e.reset, workflow.ResetConfirmed{Email: email})
	e.success(ctx, msgPasswordReset)
	logctx.FromOr(ctx, e.logger).InfoContext(ctx, "password reset completed",
		slog.String("email", logctx.Email(email)),
	)

	return &ResetResult{Profile: profile, Redirect: guard.RouteLogin}, nil
}
