package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies the device and order identifiers carried by an event's
// context onto the event.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	if id := GetDeviceID(ctx); id != "" {
		e.Str("device_id", id)
	}
	if id, ok := GetOrderID(ctx); ok {
		e.Int64("order_id", id)
	}
}
