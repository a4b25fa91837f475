package workflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginHappyPath(t *testing.T) {
	var s State = AwaitingCredentials{}
	var err error

	s, err = Transition(s, CredentialsAccepted{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, AwaitingCode{Email: "a@b.com"}, s)

	s, err = Transition(s, CodeResent{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, AwaitingCode{Email: "a@b.com"}, s)

	s, err = Transition(s, CodeAccepted{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, Authenticated{Email: "a@b.com"}, s)

	s, err = Transition(s, SignedOut{})
	require.NoError(t, err)
	require.Equal(t, AwaitingCredentials{}, s)
}

func TestLoginFailures(t *testing.T) {
	s, err := Transition(AwaitingCredentials{}, CredentialsRejected{Reason: "bad password"})
	require.NoError(t, err)
	require.Equal(t, Failed{Reason: "bad password"}, s)

	s, err = Transition(s, CredentialsAccepted{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, AwaitingCode{Email: "a@b.com"}, s)

	s, err = Transition(s, CodeRejected{Email: "a@b.com", Reason: "expired"})
	require.NoError(t, err)
	require.Equal(t, AwaitingCode{Email: "a@b.com"}, s)
}

func TestCodeAcceptedWithoutPriorLogin(t *testing.T) {
	s, err := Transition(AwaitingCredentials{}, CodeAccepted{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, Authenticated{Email: "a@b.com"}, s)
}

func TestResetFlow(t *testing.T) {
	var s State = ResetAwaitingEmail{}
	var err error

	s, err = Transition(s, ResetRequested{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, ResetAwaitingCode{Email: "a@b.com"}, s)

	s, err = Transition(s, ResetRejected{Email: "a@b.com", Reason: "bad code"})
	require.NoError(t, err)
	require.Equal(t, ResetAwaitingCode{Email: "a@b.com"}, s)

	s, err = Transition(s, ResetConfirmed{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, ResetCompleted{Email: "a@b.com"}, s)

	s, err = Transition(s, ResetRequested{Email: "c@d.com"})
	require.NoError(t, err)
	require.Equal(t, ResetAwaitingCode{Email: "c@d.com"}, s)
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		name  string
		state State
		event Event
	}{
		{"reset event on login", AwaitingCredentials{}, ResetRequested{Email: "a@b.com"}},
		{"login event on reset", ResetAwaitingEmail{}, CredentialsAccepted{Email: "a@b.com"}},
		{"code rejected after auth", Authenticated{Email: "a@b.com"}, CodeRejected{Email: "a@b.com"}},
		{"credentials rejected after auth", Authenticated{}, CredentialsRejected{Reason: "x"}},
		{"confirm twice", ResetCompleted{Email: "a@b.com"}, ResetConfirmed{Email: "a@b.com"}},
		{"reject after completion", ResetCompleted{}, ResetRejected{}},
		{"nil state", nil, SignedOut{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.state, tc.event)
			require.True(t, errors.Is(err, ErrInvalidTransition))
			require.Equal(t, tc.state, got)
		})
	}
}

func TestSignedOutResetsEitherFlow(t *testing.T) {
	for _, s := range []State{AwaitingCode{Email: "x"}, Failed{}, Authenticated{}} {
		got, err := Transition(s, SignedOut{})
		require.NoError(t, err)
		require.Equal(t, AwaitingCredentials{}, got)
	}
	for _, s := range []State{ResetAwaitingCode{Email: "x"}, ResetCompleted{}} {
		got, err := Transition(s, SignedOut{})
		require.NoError(t, err)
		require.Equal(t, ResetAwaitingEmail{}, got)
	}
}

func TestPendingEmail(t *testing.T) {
	email, ok := PendingEmail(AwaitingCode{Email: "a@b.com"})
	require.True(t, ok)
	require.Equal(t, "a@b.com", email)

	email, ok = PendingEmail(ResetAwaitingCode{Email: "c@d.com"})
	require.True(t, ok)
	require.Equal(t, "c@d.com", email)

	_, ok = PendingEmail(Authenticated{})
	require.False(t, ok)
}

func TestMachineKeepsStateOnError(t *testing.T) {
	m := NewMachine(FlowLogin)
	require.Equal(t, AwaitingCredentials{}, m.Current())

	_, err := m.Apply(ResetRequested{Email: "a@b.com"})
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, AwaitingCredentials{}, m.Current())

	_, err = m.Apply(CredentialsAccepted{Email: "a@b.com"})
	require.NoError(t, err)
	m.Reset()
	require.Equal(t, AwaitingCredentials{}, m.Current())

	r := NewMachine(FlowReset)
	require.Equal(t, ResetAwaitingEmail{}, r.Current())
	require.Equal(t, FlowReset, r.Current().Flow())
}

func TestMachineConcurrentApply(t *testing.T) {
	m := NewMachine(FlowLogin)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Apply(CodeResent{Email: "a@b.com"})
			_, _ = m.Apply(CredentialsAccepted{Email: "a@b.com"})
		}()
	}
	wg.Wait()
	require.Equal(t, AwaitingCode{Email: "a@b.com"}, m.Current())
}

func TestFlowString(t *testing.T) {
	require.Equal(t, "login", FlowLogin.String())
	require.Equal(t, "reset", FlowReset.String())
	require.Equal(t, "flow(9)", Flow(9).String())
}
