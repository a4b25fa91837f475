package portal

import "errors"

var (
	// ErrAuthenticationFailed is returned by Login for every rejection. It
	// deliberately does not say whether the email or the password was wrong.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidCode is returned by CheckCode when the one-time code is wrong
	// or expired.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrResendFailed is returned by ResendCode.
	ErrResendFailed = errors.New("resend code failed")
	// ErrResetRequestFailed is returned by RequestForgotPassword.
	ErrResetRequestFailed = errors.New("password reset request failed")
	// ErrResetFailed is returned by ForgotPassword.
	ErrResetFailed = errors.New("password reset failed")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrProfileUnavailable is returned when the backend profile cannot be
	// fetched or decoded.
	ErrProfileUnavailable = errors.New("profile unavailable")
	// ErrSessionPersist is returned when the session store rejects a write.
	ErrSessionPersist = errors.New("session persist failed")
	// ErrMalformedAuthResponse is returned when a login-like response carries
	// no usable token.
	ErrMalformedAuthResponse = errors.New("malformed auth response")
	// ErrInvalidInput is returned before any request when a required argument
	// is blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrBuilderUsed is returned by a second Build call.
	ErrBuilderUsed = errors.New("builder already used")
)
