package portal

// Backend paths. They are part of the backend contract and must not change.
const (
	PathLogin          = "/api/v1/auth/login"
	PathResendCode     = "/api/v1/auth/resend-code"
	PathCheckCode      = "/api/v1/auth/check-code"
	PathForgotPassword = "/api/v1/auth/forgot-password"
	PathProfile        = "/api/v1/auth/profile"

	// PathRequestPasswordReset asks the backend to email a reset code. The
	// backend currently serves this through the resend-code endpoint.
	PathRequestPasswordReset = PathResendCode
)

// User-facing notification texts.
const (
	msgCodeSent           = "A verification code has been sent to your email"
	msgCodeResent         = "A new verification code has been sent"
	msgAuthFailed         = "Authentication failed"
	msgInvalidCode        = "Invalid or expired code"
	msgResetCodeSent      = "A password reset code has been sent to your email"
	msgPasswordReset      = "Your password has been updated, please sign in"
	msgUnexpectedResponse = "Unexpected response from the server"
	msgSignedOut          = "You have been signed out"
)
