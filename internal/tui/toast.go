package tui

import "time"

const (
	toastTTL          = 6 * time.Second
	maxToasts         = 4
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 46
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastWarning
)

type toast struct {
	title string
	body  string
	level toastLevel
	ttl   time.Duration
}

// toastStack holds the visible toasts, oldest first. A tick loop runs only
// while the stack is non-empty.
type toastStack struct {
	items   []toast
	running bool
}

// push adds t and reports whether the caller must start the tick loop.
func (s *toastStack) push(t toast) (startTicking bool) {
	if t.ttl <= 0 {
		t.ttl = toastTTL
	}
	s.items = append(s.items, t)
	if over := len(s.items) - maxToasts; over > 0 {
		s.items = s.items[over:]
	}
	if s.running {
		return false
	}
	s.running = true
	return true
}

// tick ages every toast by d, drops the expired ones, and reports whether
// the loop should keep going.
func (s *toastStack) tick(d time.Duration) bool {
	kept := s.items[:0]
	for _, t := range s.items {
		if t.ttl -= d; t.ttl > 0 {
			kept = append(kept, t)
		}
	}
	s.items = kept
	s.running = len(kept) > 0
	return s.running
}
