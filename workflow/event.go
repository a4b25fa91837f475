package workflow

// Event is a backend outcome (or a local sign-out) fed into [Transition].
type Event interface {
	String() string
	isEvent()
}

// CredentialsAccepted: login succeeded, a code was sent to Email.
type CredentialsAccepted struct{ Email string }

// CredentialsRejected: login failed for Reason.
type CredentialsRejected struct{ Reason string }

// CodeAccepted: the one-time code for Email was valid.
type CodeAccepted struct{ Email string }

// CodeRejected: the code for Email was invalid or expired.
type CodeRejected struct {
	Email  string
	Reason string
}

// CodeResent: a new code was sent. It never moves the login machine.
type CodeResent struct{ Email string }

// ResetRequested: a reset code was sent to Email.
type ResetRequested struct{ Email string }

// ResetConfirmed: the password for Email was changed.
type ResetConfirmed struct{ Email string }

// ResetRejected: the reset code or new password was refused.
type ResetRejected struct {
	Email  string
	Reason string
}

// SignedOut returns either machine to its entry state.
type SignedOut struct{}

func (CredentialsAccepted) String() string { return "credentials_accepted" }
func (CredentialsRejected) String() string { return "credentials_rejected" }
func (CodeAccepted) String() string        { return "code_accepted" }
func (CodeRejected) String() string        { return "code_rejected" }
func (CodeResent) String() string          { return "code_resent" }
func (ResetRequested) String() string      { return "reset_requested" }
func (ResetConfirmed) String() string      { return "reset_confirmed" }
func (ResetRejected) String() string       { return "reset_rejected" }
func (SignedOut) String() string           { return "signed_out" }

func (CredentialsAccepted) isEvent() {}
func (CredentialsRejected) isEvent() {}
func (CodeAccepted) isEvent()        {}
func (CodeRejected) isEvent()        {}
func (CodeResent) isEvent()          {}
func (ResetRequested) isEvent()      {}
func (ResetConfirmed) isEvent()      {}
func (ResetRejected) isEvent()       {}
func (SignedOut) isEvent()           {}
