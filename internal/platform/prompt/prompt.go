// Package prompt asks the user for notification permission on the terminal.
package prompt

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Terminal prompts with a huh confirm form. When stdin is not a terminal the
// answer is always no.
type Terminal struct {
	isTerminal func() bool
	run        func(ctx context.Context, title, description string, value *bool) error
}

// NewTerminal returns a prompter bound to the process stdin.
func NewTerminal() *Terminal {
	return &Terminal{
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		run:        runConfirm,
	}
}

func runConfirm(ctx context.Context, title, description string, value *bool) error {
	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Allow").
		Negative("Block").
		Value(value)
	return huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx)
}

// Confirm asks the question. Aborting the form counts as a refusal.
func (t *Terminal) Confirm(ctx context.Context, title, description string) (bool, error) {
	if !t.isTerminal() {
		return false, nil
	}

	var ok bool
	if err := t.run(ctx, title, description, &ok); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
