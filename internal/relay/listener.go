package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/sound"
	"github.com/rs/zerolog"
)

// Callback receives relayed push payloads.
type Callback func(push.Message)

// Listener is the foreground side of the relay. It holds exactly one
// handler; registering again replaces it.
type Listener struct {
	player   sound.Player
	bus      *eventbus.EventBus
	reporter *degrade.Reporter
	log      zerolog.Logger

	mu      sync.Mutex
	handler Callback
	sounds  sync.WaitGroup
}

// NewListener creates a listener. player, bus and reporter may be nil.
func NewListener(player sound.Player, bus *eventbus.EventBus, reporter *degrade.Reporter) *Listener {
	if player == nil {
		player = sound.Silent{}
	}
	return &Listener{
		player:   player,
		bus:      bus,
		reporter: reporter,
		log:      logging.Component("relay.listener"),
	}
}

// ListenForForegroundPush installs cb as the handler for relayed pushes.
// The returned func removes it.
func (l *Listener) ListenForForegroundPush(cb Callback) func() {
	l.mu.Lock()
	l.handler = cb
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		l.handler = nil
		l.mu.Unlock()
	}
}

// Run drains envelopes until in is closed or ctx ends.
func (l *Listener) Run(ctx context.Context, in <-chan Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-in:
			if !ok {
				return
			}
			l.Handle(ctx, env)
		}
	}
}

// Handle processes one envelope. Unknown types are ignored. For a push the
// chime starts playing and the handler is called with the payload.
func (l *Listener) Handle(ctx context.Context, env Envelope) {
	if env.Type != TypePushReceived {
		l.log.Debug().Str("type", env.Type).Msg("ignoring relay message")
		return
	}

	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()
	if handler == nil {
		return
	}

	var msg push.Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		l.reporter.Handle("relay.decode", degrade.TerminalNoOp, err)
		return
	}

	l.sounds.Add(1)
	go func() {
		defer l.sounds.Done()
		l.reporter.Handle("relay.sound", degrade.BestEffort, l.player.Play(ctx))
	}()

	handler(msg)

	if l.bus != nil {
		l.bus.PublishPushReceived(eventbus.PushReceivedPayload{Message: msg})
	}
}

// Wait blocks until chimes that were started have finished.
func (l *Listener) Wait() {
	l.sounds.Wait()
}
