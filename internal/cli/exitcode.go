package cli

import (
	"context"
	"errors"

	"github.com/miniapp-agency/portal/guard"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitRedirect    = 2
	ExitInterrupted = 130
)

// ExitCode maps the result of a command onto a process exit code. A guard
// redirect gets its own code so scripts can tell "not allowed here" apart
// from a failure.
func ExitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case ctx != nil && errors.Is(ctx.Err(), context.Canceled):
		return ExitInterrupted
	case errors.Is(err, guard.ErrRedirect):
		return ExitRedirect
	default:
		return ExitError
	}
}
