// Package reconcile turns polled order state into notification records.
//
// Each cycle fetches the caller's orders, diffs them against the seen-state
// store and appends a record for every genuine status transition. Orders seen
// for the first time are recorded silently. Polling stops on its own once no
// returned order is active.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/colonyops/ordernotify/internal/core/order"
	"github.com/colonyops/ordernotify/internal/core/seen"
	"github.com/rs/zerolog"
)

// DefaultInterval is the delay between poll cycles.
const DefaultInterval = 25 * time.Second

// OrderSource fetches the caller's current orders.
type OrderSource interface {
	Orders(ctx context.Context) ([]order.Order, error)
}

// Options configures a Reconciler. Zero values fall back to defaults.
type Options struct {
	Interval time.Duration
	Bus      *eventbus.EventBus
	Reporter *degrade.Reporter
}

// Reconciler owns the polling loop and the in-memory notification list of
// one page session.
type Reconciler struct {
	source   OrderSource
	seen     *seen.Store
	list     *notify.List
	bus      *eventbus.EventBus
	reporter *degrade.Reporter
	interval time.Duration
	log      zerolog.Logger

	// cycleMu serializes poll cycles so load/diff/save never interleave.
	cycleMu sync.Mutex

	mu      sync.Mutex
	running bool
	stop    context.CancelFunc
	done    chan struct{}
}

// New creates a reconciler. It does not start polling.
func New(source OrderSource, store *seen.Store, opts Options) *Reconciler {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Reconciler{
		source:   source,
		seen:     store,
		list:     notify.NewList(),
		bus:      opts.Bus,
		reporter: opts.Reporter,
		interval: interval,
		log:      logging.Component("reconcile"),
	}
}

// StartPolling runs an immediate cycle followed by one every interval. A call
// while polling is already running is a no-op. ctx bounds both the loop and
// the requests made by each cycle.
func (r *Reconciler) StartPolling(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.running = true
	r.stop = cancel
	r.done = done
	r.mu.Unlock()

	r.log.Debug().Dur("interval", r.interval).Msg("polling started")
	r.bus.PublishPollingStarted(eventbus.PollingStartedPayload{})

	go r.loop(ctx, loopCtx, done)
}

// StopPolling cancels the loop. It is safe to call when not running. A cycle
// already in flight runs to completion; no further cycle starts.
func (r *Reconciler) StopPolling() {
	r.stopPolling(false, nil)
}

// Polling reports whether the loop is running.
func (r *Reconciler) Polling() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Wait blocks until the current loop, if any, has exited.
func (r *Reconciler) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// stopPolling stops the loop identified by owner, or whichever loop is
// running when owner is nil.
func (r *Reconciler) stopPolling(idle bool, owner chan struct{}) {
	r.mu.Lock()
	if !r.running || (owner != nil && owner != r.done) {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.stop()
	r.stop = nil
	r.mu.Unlock()

	r.log.Debug().Bool("idle", idle).Msg("polling stopped")
	r.bus.PublishPollingStopped(eventbus.PollingStoppedPayload{Idle: idle})
}

// loop uses cycleCtx for requests and loopCtx for scheduling, so stopping
// prevents the next tick without aborting a cycle that already started.
func (r *Reconciler) loop(cycleCtx, loopCtx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.poll(cycleCtx, done)

	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			if loopCtx.Err() != nil {
				return
			}
			r.poll(cycleCtx, done)
		}
	}
}

// Poll performs one fetch-diff-emit cycle and returns the records it
// appended. A failed fetch abandons the cycle without surfacing an error.
func (r *Reconciler) Poll(ctx context.Context) []notify.Record {
	r.mu.Lock()
	owner := r.done
	if !r.running {
		// No loop to stop; a loop started mid-cycle is not this cycle's.
		owner = make(chan struct{})
	}
	r.mu.Unlock()
	return r.poll(ctx, owner)
}

// poll runs one cycle on behalf of the loop identified by owner. An idle
// result only stops that loop, so a cycle that outlives a restart leaves the
// new loop running.
func (r *Reconciler) poll(ctx context.Context, owner chan struct{}) []notify.Record {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	orders, err := r.source.Orders(ctx)
	if err != nil {
		r.reporter.Handle("reconcile.fetch", degrade.RetryNextCycle, err)
		return nil
	}

	prev := r.seen.Load(ctx)
	next, transitions := Diff(prev, orders)

	created := make([]notify.Record, 0, len(transitions))
	for _, o := range transitions {
		msg, ok := order.Message(o)
		if !ok {
			continue
		}
		rec := r.list.Append(notify.Record{
			OrderID:    o.ID,
			Status:     o.Status,
			ETAMinutes: o.ETAMinutes,
			Message:    msg,
		})
		created = append(created, rec)

		r.log.Info().Ctx(logging.WithOrderID(ctx, o.ID)).
			Str("status", string(o.Status)).
			Int64("record_id", rec.ID).
			Msg("status changed")
		r.bus.PublishNotificationCreated(eventbus.NotificationCreatedPayload{Record: rec})
	}

	if err := r.seen.Save(ctx, next); err != nil {
		r.reporter.Handle("reconcile.save", degrade.RetryNextCycle, err)
	}

	if !order.AnyActive(orders) {
		r.stopPolling(true, owner)
	}

	return created
}

// Diff applies orders to prev. It returns the updated map and, in server
// order, the orders whose status differs from a previously seen one. Orders
// absent from prev are added to the map without being reported. prev is not
// modified.
func Diff(prev seen.Map, orders []order.Order) (seen.Map, []order.Order) {
	next := prev.Clone()
	var transitions []order.Order

	for _, o := range orders {
		was, ok := prev[o.ID]
		if !ok {
			next[o.ID] = o.Status
			continue
		}
		if was != o.Status {
			next[o.ID] = o.Status
			transitions = append(transitions, o)
		}
	}

	return next, transitions
}

// Notifications returns the current records in emission order.
func (r *Reconciler) Notifications() []notify.Record {
	return r.list.Items()
}

// Dismiss removes the record with the given id. Seen state is untouched.
func (r *Reconciler) Dismiss(id int64) bool {
	if !r.list.Remove(id) {
		return false
	}
	r.bus.PublishNotificationDismissed(eventbus.NotificationDismissedPayload{RecordID: id})
	return true
}

// DismissAll empties the list and returns how many records were removed.
func (r *Reconciler) DismissAll() int {
	n := r.list.Clear()
	r.bus.PublishNotificationDismissed(eventbus.NotificationDismissedPayload{All: true})
	return n
}
