package workflow

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when an event is not defined for a state.
var ErrInvalidTransition = errors.New("workflow: invalid transition")

// Transition returns the state that follows s when e happens.
//
// Code submissions carry their own email, so CodeAccepted and CodeRejected
// are accepted from any unauthenticated login state. This lets a caller that
// lost the in-memory state (a new CLI process, a reloaded page) finish the
// second step.
func Transition(s State, e Event) (State, error) {
	switch st := s.(type) {
	case AwaitingCredentials, AwaitingCode, Failed:
		switch ev := e.(type) {
		case CredentialsAccepted:
			return AwaitingCode{Email: ev.Email}, nil
		case CredentialsRejected:
			return Failed{Reason: ev.Reason}, nil
		case CodeAccepted:
			return Authenticated{Email: ev.Email}, nil
		case CodeRejected:
			return AwaitingCode{Email: ev.Email}, nil
		case CodeResent:
			return s, nil
		case SignedOut:
			return AwaitingCredentials{}, nil
		}
	case Authenticated:
		switch ev := e.(type) {
		case CodeAccepted:
			return st, nil
		case CredentialsAccepted:
			return AwaitingCode{Email: ev.Email}, nil
		case SignedOut:
			return AwaitingCredentials{}, nil
		}
	case ResetAwaitingEmail, ResetAwaitingCode, ResetCompleted:
		switch ev := e.(type) {
		case ResetRequested:
			return ResetAwaitingCode{Email: ev.Email}, nil
		case ResetConfirmed:
			if _, done := s.(ResetCompleted); done {
				break
			}
			return ResetCompleted{Email: ev.Email}, nil
		case ResetRejected:
			if _, done := s.(ResetCompleted); done {
				break
			}
			return ResetAwaitingCode{Email: ev.Email}, nil
		case SignedOut:
			return ResetAwaitingEmail{}, nil
		}
	}
	return s, fmt.Errorf("%w: %v on %v", ErrInvalidTransition, e, s)
}

// Machine holds the current state of one flow and serializes transitions.
type Machine struct {
	mu    sync.Mutex
	flow  Flow
	state State
}

// NewMachine returns a machine positioned at the entry state of f.
func NewMachine(f Flow) *Machine {
	return &Machine{flow: f, state: Initial(f)}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply moves the machine with e. On error the state is unchanged.
func (m *Machine) Apply(e Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := Transition(m.state, e)
	if err != nil {
		return m.state, err
	}
	m.state = next
	return next, nil
}

// Reset puts the machine back at its entry state.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.state = Initial(m.flow)
	m.mu.Unlock()
}
