package workflow

import "fmt"

// Flow tells the two machines apart.
type Flow uint8

const (
	FlowLogin Flow = iota + 1
	FlowReset
)

func (f Flow) String() string {
	switch f {
	case FlowLogin:
		return "login"
	case FlowReset:
		return "reset"
	default:
		return fmt.Sprintf("flow(%d)", uint8(f))
	}
}

// State is a node of either machine. The unexported method seals the set.
type State interface {
	Flow() Flow
	String() string
	isState()
}

// AwaitingCredentials is the login entry state.
type AwaitingCredentials struct{}

// AwaitingCode means the password was accepted and a one-time code was sent
// to Email.
type AwaitingCode struct{ Email string }

// Authenticated means the code was accepted and a session exists.
type Authenticated struct{ Email string }

// Failed means the last credential submission was rejected.
type Failed struct{ Reason string }

// ResetAwaitingEmail is the password-reset entry state.
type ResetAwaitingEmail struct{}

// ResetAwaitingCode means a reset code was requested for Email.
type ResetAwaitingCode struct{ Email string }

// ResetCompleted means the password was changed; the user goes back to login.
type ResetCompleted struct{ Email string }

func (AwaitingCredentials) Flow() Flow { return FlowLogin }
func (AwaitingCode) Flow() Flow        { return FlowLogin }
func (Authenticated) Flow() Flow       { return FlowLogin }
func (Failed) Flow() Flow              { return FlowLogin }
func (ResetAwaitingEmail) Flow() Flow  { return FlowReset }
func (ResetAwaitingCode) Flow() Flow   { return FlowReset }
func (ResetCompleted) Flow() Flow      { return FlowReset }

func (AwaitingCredentials) String() string { return "awaiting_credentials" }
func (s AwaitingCode) String() string      { return "awaiting_code(" + s.Email + ")" }
func (Authenticated) String() string       { return "authenticated" }
func (s Failed) String() string            { return "failed(" + s.Reason + ")" }
func (ResetAwaitingEmail) String() string  { return "reset_awaiting_email" }
func (s ResetAwaitingCode) String() string { return "reset_awaiting_code(" + s.Email + ")" }
func (ResetCompleted) String() string      { return "reset_completed" }

func (AwaitingCredentials) isState() {}
func (AwaitingCode) isState()        {}
func (Authenticated) isState()       {}
func (Failed) isState()              {}
func (ResetAwaitingEmail) isState()  {}
func (ResetAwaitingCode) isState()   {}
func (ResetCompleted) isState()      {}

// Initial returns the entry state of f.
func Initial(f Flow) State {
	if f == FlowReset {
		return ResetAwaitingEmail{}
	}
	return AwaitingCredentials{}
}

// PendingEmail returns the address a code was sent to, if s is waiting for
// one.
func PendingEmail(s State) (string, bool) {
	switch st := s.(type) {
	case AwaitingCode:
		return st.Email, true
	case ResetAwaitingCode:
		return st.Email, true
	default:
		return "", false
	}
}
