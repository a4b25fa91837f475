package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrNotInteractive is returned when a value is missing and stdin cannot be
// prompted.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// Prompter asks the user for a single value.
type Prompter interface {
	Input(title string, secret bool) (string, error)
}

type huhPrompter struct{}

func (huhPrompter) Input(title string, secret bool) (string, error) {
	if !isInteractive() {
		return "", fmt.Errorf("%w: pass %q as a flag", ErrNotInteractive, strings.ToLower(title))
	}

	var value string
	input := huh.NewInput().
		Title(title).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("required")
			}
			return nil
		})
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// ask returns value when set and prompts otherwise.
func ask(p Prompter, value, title string, secret bool) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	return p.Input(title, secret)
}
