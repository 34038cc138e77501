package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// EventBuffer collects messages produced on other goroutines (bus handlers,
// the relay listener) and hands them to the program in batches.
type EventBuffer struct {
	mu     sync.Mutex
	msgs   []tea.Msg
	signal chan struct{}
}

func NewEventBuffer() *EventBuffer {
	return &EventBuffer{signal: make(chan struct{}, 1)}
}

// Push appends msg and emits a non-blocking drain signal.
func (b *EventBuffer) Push(msg tea.Msg) {
	b.mu.Lock()
	b.msgs = append(b.msgs, msg)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain returns all buffered messages and clears the buffer.
func (b *EventBuffer) Drain() []tea.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.msgs) == 0 {
		return nil
	}
	out := make([]tea.Msg, len(b.msgs))
	copy(out, b.msgs)
	b.msgs = b.msgs[:0]
	return out
}

type drainMsg struct{}

// WaitForSignal blocks until messages are ready to drain.
func (b *EventBuffer) WaitForSignal() tea.Cmd {
	return func() tea.Msg {
		<-b.signal
		return drainMsg{}
	}
}
