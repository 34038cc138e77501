package prompt

import (
	"context"
	"errors"
	"sync"
)

// ErrNoPrompter is returned by an empty Switch.
var ErrNoPrompter = errors.New("no prompter available")

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// Switch forwards to the current prompter. An interactive view that owns the
// terminal installs its own prompter for as long as it runs.
type Switch struct {
	mu      sync.RWMutex
	current Confirmer
}

// NewSwitch returns a switch forwarding to p. p may be nil.
func NewSwitch(p Confirmer) *Switch {
	return &Switch{current: p}
}

// Use installs p and returns a func restoring the previous prompter.
func (s *Switch) Use(p Confirmer) (restore func()) {
	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.current = prev
		s.mu.Unlock()
	}
}

func (s *Switch) Confirm(ctx context.Context, title, description string) (bool, error) {
	s.mu.RLock()
	p := s.current
	s.mu.RUnlock()

	if p == nil {
		return false, ErrNoPrompter
	}
	return p.Confirm(ctx, title, description)
}
