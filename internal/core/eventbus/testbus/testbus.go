// Package testbus runs a real event bus for tests and records every payload
// it dispatches.
package testbus

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/ordernotify/internal/core/eventbus"
)

type entry struct {
	event   eventbus.Event
	payload any
}

// Bus is a started *eventbus.EventBus that remembers what it delivered.
type Bus struct {
	*eventbus.EventBus

	mu  sync.Mutex
	log []entry
}

// New starts a bus that is stopped when t finishes.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{EventBus: eventbus.New(64)}
	record(tb, eventbus.EventDeliveryDegraded, tb.SubscribeDeliveryDegraded)
	record(tb, eventbus.EventNotificationCreated, tb.SubscribeNotificationCreated)
	record(tb, eventbus.EventNotificationDismissed, tb.SubscribeNotificationDismissed)
	record(tb, eventbus.EventPollingStarted, tb.SubscribePollingStarted)
	record(tb, eventbus.EventPollingStopped, tb.SubscribePollingStopped)
	record(tb, eventbus.EventPushReceived, tb.SubscribePushReceived)
	record(tb, eventbus.EventPushRendered, tb.SubscribePushRendered)
	record(tb, eventbus.EventSubscriptionChanged, tb.SubscribeSubscriptionChanged)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go tb.Start(ctx)

	return tb
}

func record[T any](tb *Bus, event eventbus.Event, subscribe func(func(T))) {
	subscribe(func(p T) {
		tb.mu.Lock()
		tb.log = append(tb.log, entry{event: event, payload: p})
		tb.mu.Unlock()
	})
}

// Payloads returns the payloads delivered for event, in dispatch order.
func Payloads[T any](tb *Bus, event eventbus.Event) []T {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	var out []T
	for _, e := range tb.log {
		if p, ok := e.payload.(T); ok && e.event == event {
			out = append(out, p)
		}
	}
	return out
}

func (tb *Bus) count(event eventbus.Event) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(slices.DeleteFunc(slices.Clone(tb.log), func(e entry) bool { return e.event != event }))
}

// WaitForCount reports whether at least n payloads for event arrive within timeout.
func (tb *Bus) WaitForCount(event eventbus.Event, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for tb.count(event) < n {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
	return true
}

func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	return tb.WaitForCount(event, 1, timeout)
}

func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	assert.True(t, tb.WaitFor(event, 500*time.Millisecond), "event %q was not delivered", event)
}

// AssertNotPublished waits quiet before checking, so late deliveries are caught.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, quiet time.Duration) {
	t.Helper()
	time.Sleep(quiet)
	assert.Zero(t, tb.count(event), "event %q was delivered", event)
}
