package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Observer watches bus traffic without subscribing to payloads. Nil fields
// are skipped.
type Observer struct {
	Published func(Event)
	Dropped   func(Event)
	Panicked  func(event Event, recovered any)
}

// Observe adds o to the bus. Observers cannot be removed.
func (bus *EventBus) Observe(o Observer) {
	bus.mu.Lock()
	bus.observers = append(bus.observers, o)
	bus.mu.Unlock()
}

// LogObserver reports enqueued events at debug level, dropped events as
// warnings and subscriber panics as errors.
func LogObserver(logger zerolog.Logger) Observer {
	return Observer{
		Published: func(e Event) {
			logger.Debug().Str("event", string(e)).Msg("event published")
		},
		Dropped: func(e Event) {
			logger.Warn().Str("event", string(e)).Msg("event dropped, buffer full")
		},
		Panicked: func(e Event, recovered any) {
			logger.Error().Str("event", string(e)).Str("panic", fmt.Sprint(recovered)).Msg("subscriber panicked")
		},
	}
}

func (bus *EventBus) observe(fn func(Observer)) {
	bus.mu.RLock()
	list := append([]Observer(nil), bus.observers...)
	bus.mu.RUnlock()

	for _, o := range list {
		func() {
			defer func() { _ = recover() }()
			fn(o)
		}()
	}
}

// send enqueues without blocking. A nil bus drops everything so components
// can run without one.
func (bus *EventBus) send(event Event, payload any) {
	if bus == nil {
		return
	}
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.observe(func(o Observer) {
			if o.Published != nil {
				o.Published(event)
			}
		})
	default:
		bus.observe(func(o Observer) {
			if o.Dropped != nil {
				o.Dropped(event)
			}
		})
	}
}
