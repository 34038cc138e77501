package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/eventbus/testbus"
	"github.com/colonyops/ordernotify/internal/core/kv"
	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/colonyops/ordernotify/internal/core/order"
	"github.com/colonyops/ordernotify/internal/core/seen"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns one response per call, repeating the last.
type scriptedSource struct {
	mu    sync.Mutex
	steps []step
	calls atomic.Int32
	block chan struct{}
	// holdFirst, when set, blocks only the first call.
	holdFirst chan struct{}
}

type step struct {
	orders []order.Order
	err    error
}

func (s *scriptedSource) Orders(ctx context.Context) ([]order.Order, error) {
	n := int(s.calls.Add(1)) - 1
	if s.block != nil {
		<-s.block
	}
	if n == 0 && s.holdFirst != nil {
		<-s.holdFirst
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.steps) {
		n = len(s.steps) - 1
	}
	return s.steps[n].orders, s.steps[n].err
}

func eta(n int) *int { return &n }

type fixture struct {
	source *scriptedSource
	store  *seen.Store
	bus    *testbus.Bus
	rec    *Reconciler
}

func newFixture(t *testing.T, interval time.Duration, steps ...step) fixture {
	t.Helper()
	tb := testbus.New(t)
	reporter := degrade.NewReporter(zerolog.Nop(), eventbus.DegradeSink(tb.EventBus))
	src := &scriptedSource{steps: steps}
	store := seen.NewStore(kv.NewMemory(), reporter)
	return fixture{
		source: src,
		store:  store,
		bus:    tb,
		rec:    New(src, store, Options{Interval: interval, Bus: tb.EventBus, Reporter: reporter}),
	}
}

func TestPoll_BootstrapThenTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{{ID: 1, Status: order.StatusPending}}},
		step{orders: []order.Order{{ID: 1, Status: order.StatusConfirmed, ETAMinutes: eta(30)}}},
	)

	created := f.rec.Poll(ctx)
	assert.Empty(t, created, "first sighting is silent")
	assert.Empty(t, f.rec.Notifications())
	assert.Equal(t, seen.Map{1: order.StatusPending}, f.store.Load(ctx))

	created = f.rec.Poll(ctx)
	require.Len(t, created, 1)

	got := f.rec.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].OrderID)
	assert.Equal(t, order.StatusConfirmed, got[0].Status)
	require.NotNil(t, got[0].ETAMinutes)
	assert.Equal(t, 30, *got[0].ETAMinutes)
	assert.Equal(t, "Zamówienie #1 potwierdzone! Szacowany czas: 30 min.", got[0].Message)
	assert.Equal(t, seen.Map{1: order.StatusConfirmed}, f.store.Load(ctx))

	f.bus.AssertPublished(t, eventbus.EventNotificationCreated)
}

func TestPoll_UnchangedStatusEmitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour, step{orders: []order.Order{{ID: 5, Status: order.StatusPreparing}}})

	f.rec.Poll(ctx)
	f.rec.Poll(ctx)
	f.rec.Poll(ctx)

	assert.Empty(t, f.rec.Notifications())
}

func TestPoll_MultipleTransitionsKeepServerOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{
			{ID: 3, Status: order.StatusPending},
			{ID: 1, Status: order.StatusPreparing},
			{ID: 2, Status: order.StatusConfirmed},
		}},
		step{orders: []order.Order{
			{ID: 3, Status: order.StatusConfirmed},
			{ID: 1, Status: order.StatusDelivering},
			{ID: 2, Status: order.StatusCancelled},
		}},
	)

	f.rec.Poll(ctx)
	f.rec.Poll(ctx)

	got := f.rec.Notifications()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{got[0].OrderID, got[1].OrderID, got[2].OrderID})
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "Zamówienie #3 potwierdzone!", got[0].Message)
	assert.Equal(t, "Zamówienie #1 jest w drodze! 🛵", got[1].Message)
	assert.Equal(t, "Zamówienie #2 zostało anulowane.", got[2].Message)
}

func TestPoll_TransitionToPendingUpdatesStoreWithoutRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{{ID: 9, Status: order.StatusConfirmed}}},
		step{orders: []order.Order{{ID: 9, Status: order.StatusPending}}},
	)

	f.rec.Poll(ctx)
	f.rec.Poll(ctx)

	assert.Empty(t, f.rec.Notifications())
	assert.Equal(t, order.StatusPending, f.store.Load(ctx)[9])
}

func TestPoll_VanishedOrdersStayInStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{{ID: 1, Status: order.StatusPending}, {ID: 2, Status: order.StatusPending}}},
		step{orders: []order.Order{{ID: 2, Status: order.StatusPending}}},
	)

	f.rec.Poll(ctx)
	f.rec.Poll(ctx)

	assert.Equal(t, seen.Map{1: order.StatusPending, 2: order.StatusPending}, f.store.Load(ctx))
}

func TestPoll_FetchFailureIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour, step{err: errors.New("network down")})
	require.NoError(t, f.store.Save(ctx, seen.Map{1: order.StatusPending}))

	f.rec.StartPolling(ctx)
	t.Cleanup(f.rec.StopPolling)

	require.True(t, f.bus.WaitFor(eventbus.EventDeliveryDegraded, time.Second))
	degraded := testbus.Payloads[eventbus.DeliveryDegradedPayload](f.bus, eventbus.EventDeliveryDegraded)
	require.NotEmpty(t, degraded)
	assert.Equal(t, degrade.RetryNextCycle, degraded[0].Outcome.Policy)
	assert.Equal(t, "reconcile.fetch", degraded[0].Outcome.Site)

	assert.True(t, f.rec.Polling(), "fetch failure must not stop polling")
	assert.Equal(t, seen.Map{1: order.StatusPending}, f.store.Load(ctx), "store untouched")
}

func TestStartPolling_StopsWhenAllTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Millisecond,
		step{orders: []order.Order{{ID: 1, Status: order.StatusCompleted}, {ID: 2, Status: order.StatusCancelled}}},
	)

	f.rec.StartPolling(ctx)
	f.rec.Wait()

	assert.False(t, f.rec.Polling())
	assert.Equal(t, int32(1), f.source.calls.Load())

	require.True(t, f.bus.WaitFor(eventbus.EventPollingStopped, time.Second))
	stopped := testbus.Payloads[eventbus.PollingStoppedPayload](f.bus, eventbus.EventPollingStopped)
	assert.True(t, stopped[0].Idle)
}

func TestStartPolling_StopsWithNoOrders(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond, step{orders: nil})

	f.rec.StartPolling(context.Background())
	f.rec.Wait()

	assert.False(t, f.rec.Polling())
}

func TestStartPolling_Idempotent(t *testing.T) {
	f := newFixture(t, time.Hour, step{orders: []order.Order{{ID: 1, Status: order.StatusPending}}})
	ctx := context.Background()

	f.rec.StartPolling(ctx)
	f.rec.StartPolling(ctx)
	t.Cleanup(f.rec.StopPolling)

	assert.Eventually(t, func() bool { return f.source.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), f.source.calls.Load(), "second start must not schedule another loop")

	assert.True(t, f.bus.WaitForCount(eventbus.EventPollingStarted, 1, time.Second))
	f.bus.AssertNotPublished(t, eventbus.EventPollingStopped, 10*time.Millisecond)
	assert.Len(t, testbus.Payloads[eventbus.PollingStartedPayload](f.bus, eventbus.EventPollingStarted), 1)
}

func TestStartPolling_TicksAtInterval(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond, step{orders: []order.Order{{ID: 1, Status: order.StatusDelivering}}})

	f.rec.StartPolling(context.Background())
	t.Cleanup(f.rec.StopPolling)

	assert.Eventually(t, func() bool { return f.source.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestStopPolling_SafeWhenNotRunning(t *testing.T) {
	f := newFixture(t, time.Hour, step{})

	assert.NotPanics(t, func() {
		f.rec.StopPolling()
		f.rec.StopPolling()
	})
	f.bus.AssertNotPublished(t, eventbus.EventPollingStopped, 10*time.Millisecond)
}

func TestStopPolling_DoesNotPreemptInFlightCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5*time.Millisecond,
		step{orders: []order.Order{{ID: 1, Status: order.StatusPending}}},
	)
	f.source.block = make(chan struct{})

	f.rec.StartPolling(ctx)
	require.Eventually(t, func() bool { return f.source.calls.Load() == 1 }, time.Second, time.Millisecond)

	f.rec.StopPolling()
	close(f.source.block)
	f.rec.Wait()

	assert.Equal(t, seen.Map{1: order.StatusPending}, f.store.Load(ctx), "in-flight cycle completed")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), f.source.calls.Load(), "no cycle after stop")
}

func TestStartPolling_RestartAfterStop(t *testing.T) {
	f := newFixture(t, time.Hour, step{orders: []order.Order{{ID: 1, Status: order.StatusPending}}})
	ctx := context.Background()

	f.rec.StartPolling(ctx)
	require.Eventually(t, func() bool { return f.source.calls.Load() == 1 }, time.Second, time.Millisecond)
	f.rec.StopPolling()
	f.rec.Wait()

	f.rec.StartPolling(ctx)
	t.Cleanup(f.rec.StopPolling)
	assert.Eventually(t, func() bool { return f.source.calls.Load() == 2 }, time.Second, time.Millisecond)
	assert.True(t, f.rec.Polling())
}

func TestStartPolling_StaleCycleDoesNotStopNewLoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{{ID: 1, Status: order.StatusCompleted}}},
		step{orders: []order.Order{{ID: 1, Status: order.StatusPending}}},
	)
	f.source.holdFirst = make(chan struct{})

	f.rec.StartPolling(ctx)
	require.Eventually(t, func() bool { return f.source.calls.Load() == 1 }, time.Second, time.Millisecond)

	f.rec.StopPolling()
	f.rec.StartPolling(ctx)
	t.Cleanup(f.rec.StopPolling)
	require.True(t, f.rec.Polling())

	close(f.source.holdFirst)
	require.Eventually(t, func() bool { return f.source.calls.Load() == 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return f.store.Load(ctx)[1] == order.StatusPending
	}, time.Second, time.Millisecond)

	assert.True(t, f.rec.Polling(), "idle result of the old cycle must not stop the restarted loop")
	for _, p := range testbus.Payloads[eventbus.PollingStoppedPayload](f.bus, eventbus.EventPollingStopped) {
		assert.False(t, p.Idle)
	}
}

func TestPoll_ManualCycleWithoutLoopLeavesLaterLoopAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour, step{orders: nil})

	f.rec.Poll(ctx)
	assert.False(t, f.rec.Polling())
	f.bus.AssertNotPublished(t, eventbus.EventPollingStopped, 10*time.Millisecond)
}

func TestDismiss(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{{ID: 1, Status: order.StatusPending}, {ID: 2, Status: order.StatusPending}}},
		step{orders: []order.Order{{ID: 1, Status: order.StatusConfirmed}, {ID: 2, Status: order.StatusPreparing}}},
	)
	f.rec.Poll(ctx)
	f.rec.Poll(ctx)
	before := f.store.Load(ctx)

	items := f.rec.Notifications()
	require.Len(t, items, 2)

	assert.True(t, f.rec.Dismiss(items[0].ID))
	assert.False(t, f.rec.Dismiss(items[0].ID), "already removed")
	assert.Equal(t, []notify.Record{items[1]}, f.rec.Notifications())

	assert.Equal(t, before, f.store.Load(ctx), "dismissal never touches seen state")
	f.bus.AssertPublished(t, eventbus.EventNotificationDismissed)
}

func TestDismissAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour,
		step{orders: []order.Order{{ID: 1, Status: order.StatusPending}}},
		step{orders: []order.Order{{ID: 1, Status: order.StatusConfirmed}}},
		step{orders: []order.Order{{ID: 1, Status: order.StatusPreparing}}},
	)
	for range 3 {
		f.rec.Poll(ctx)
	}
	require.Len(t, f.rec.Notifications(), 2)

	assert.Equal(t, 2, f.rec.DismissAll())
	assert.Empty(t, f.rec.Notifications())
	assert.Equal(t, 0, f.rec.DismissAll(), "empty list stays empty")
}

func TestDiff(t *testing.T) {
	prev := seen.Map{1: order.StatusPending, 2: order.StatusDelivering}
	orders := []order.Order{
		{ID: 2, Status: order.StatusCompleted},
		{ID: 3, Status: order.StatusPending},
		{ID: 1, Status: order.StatusPending},
	}

	next, transitions := Diff(prev, orders)

	assert.Equal(t, seen.Map{1: order.StatusPending, 2: order.StatusCompleted, 3: order.StatusPending}, next)
	require.Len(t, transitions, 1)
	assert.Equal(t, int64(2), transitions[0].ID)
	assert.Equal(t, order.StatusDelivering, prev[2], "prev is not modified")
}
