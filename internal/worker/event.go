package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ExtendableEvent is the pending-work handle a lifecycle handler hands back
// to the host. Work registered with WaitUntil runs concurrently; the host
// waits for all of it before treating the event as handled.
type ExtendableEvent struct {
	g   *errgroup.Group
	ctx context.Context
}

func newEvent(ctx context.Context) *ExtendableEvent {
	g, gctx := errgroup.WithContext(ctx)
	return &ExtendableEvent{g: g, ctx: gctx}
}

// WaitUntil extends the event's lifetime until fn returns.
func (e *ExtendableEvent) WaitUntil(fn func(ctx context.Context) error) {
	e.g.Go(func() error { return fn(e.ctx) })
}

// Wait blocks until all extensions finish and returns the first error.
func (e *ExtendableEvent) Wait() error {
	return e.g.Wait()
}
