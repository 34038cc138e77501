package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned when posting to a closed window.
var ErrClosed = errors.New("window closed")

// Window is an in-process page session. Messages posted by the worker are
// buffered on a channel the session drains.
type Window struct {
	id  string
	url string
	ch  chan Envelope

	mu     sync.RWMutex
	closed bool

	fmu     sync.Mutex
	focused int
	onFocus func()
}

// NewWindow creates a window showing url. buffer bounds how many envelopes
// may be queued before PostMessage blocks.
func NewWindow(url string, buffer int) *Window {
	return &Window{
		id:  uuid.NewString(),
		url: url,
		ch:  make(chan Envelope, buffer),
	}
}

func (w *Window) ID() string  { return w.id }
func (w *Window) URL() string { return w.url }

// Messages returns the channel of posted envelopes. It is closed by Close.
func (w *Window) Messages() <-chan Envelope { return w.ch }

// PostMessage queues env. It blocks while the buffer is full until ctx ends.
func (w *Window) PostMessage(ctx context.Context, env Envelope) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnFocus sets a hook run whenever the window is focused.
func (w *Window) OnFocus(fn func()) {
	w.fmu.Lock()
	w.onFocus = fn
	w.fmu.Unlock()
}

// Focus brings the window to the front.
func (w *Window) Focus(context.Context) error {
	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	w.fmu.Lock()
	w.focused++
	fn := w.onFocus
	w.fmu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Focused returns how many times the window was focused.
func (w *Window) Focused() int {
	w.fmu.Lock()
	defer w.fmu.Unlock()
	return w.focused
}

// Close stops delivery and closes the message channel.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}
