package portal

import (
	"fmt"

	"github.com/miniapp-agency/portal/session"
)

// Operation names an engine call that talks to the backend. It keys the
// pending counters.
type Operation uint8

const (
	OpLogin Operation = iota
	OpCheckCode
	OpResendCode
	OpRequestForgotPassword
	OpForgotPassword
	OpRefreshProfile
	opCount
)

func (o Operation) String() string {
	switch o {
	case OpLogin:
		return "login"
	case OpCheckCode:
		return "check_code"
	case OpResendCode:
		return "resend_code"
	case OpRequestForgotPassword:
		return "request_forgot_password"
	case OpForgotPassword:
		return "forgot_password"
	case OpRefreshProfile:
		return "refresh_profile"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// CheckCodeResult is returned by a successful CheckCode. Redirect is the
// route the caller should navigate to next.
type CheckCodeResult struct {
	Profile  *session.UserProfile
	Redirect string
}

// ResetResult is returned by a successful ForgotPassword. Profile is the
// updated user when the backend returns one.
type ResetResult struct {
	Profile  *session.UserProfile
	Redirect string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type checkCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type forgotPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// authPayload is the body of a login-like response.
type authPayload struct {
	AccessToken string               `json:"accessToken"`
	User        *session.UserProfile `json:"user"`
}
