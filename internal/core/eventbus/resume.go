package eventbus

import "context"

// Poller is the part of the status reconciler the resumer drives.
type Poller interface {
	StartPolling(ctx context.Context)
}

// PollResumer restarts polling when a push arrives in a page session. The
// reconciler stops itself once every known order is terminal and does not
// notice new orders on its own.
type PollResumer struct {
	bus    *EventBus
	poller Poller
	ctx    context.Context
}

// NewPollResumer constructs a resumer. ctx bounds the polling loops it starts.
func NewPollResumer(ctx context.Context, bus *EventBus, poller Poller) *PollResumer {
	return &PollResumer{bus: bus, poller: poller, ctx: ctx}
}

// Register subscribes the resumer to push events.
func (r *PollResumer) Register() {
	if r == nil || r.bus == nil || r.poller == nil {
		return
	}

	r.bus.SubscribePushReceived(func(PushReceivedPayload) {
		r.poller.StartPolling(r.ctx)
	})
}
