package app

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/colonyops/ordernotify/internal/core/config"
	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/colonyops/ordernotify/internal/reconcile"
	"github.com/colonyops/ordernotify/internal/relay"
	"github.com/colonyops/ordernotify/internal/relay/redisrelay"
	"github.com/colonyops/ordernotify/internal/transport/amqppush"
	"github.com/colonyops/ordernotify/internal/tray"
	"github.com/colonyops/ordernotify/internal/worker"
)

// SessionOptions configures a page session.
type SessionOptions struct {
	// URL is the page address. Defaults to the origin joined with the scope.
	URL string
	// NoWorker skips the embedded push worker, for when a separate
	// `ordernotify worker` process consumes the device queue.
	NoWorker bool
	// OnPush receives foreground pushes.
	OnPush relay.Callback
	// OnFocus runs when a notification click focuses this session.
	OnFocus func()
}

// Session is one running page: a reconciler, a foreground listener and,
// unless disabled, the push worker serving it.
type Session struct {
	app  *App
	opts SessionOptions

	Reconciler *reconcile.Reconciler
	Listener   *relay.Listener
	Tray       *tray.Center
	Hub        *relay.Hub
	Worker     *worker.Worker
	Window     *relay.Window
}

// NewSession builds a page session. Nothing runs until Run.
func (a *App) NewSession(opts SessionOptions) *Session {
	if opts.URL == "" {
		opts.URL = strings.TrimRight(a.Config.Push.Origin, "/") + a.Config.Push.Scope
	}

	s := &Session{
		app:        a,
		opts:       opts,
		Reconciler: a.NewReconciler(),
		Listener:   a.NewListener(),
		Window:     relay.NewWindow(opts.URL, 16),
	}
	if opts.OnFocus != nil {
		s.Window.OnFocus(opts.OnFocus)
	}
	if !opts.NoWorker {
		s.Tray = a.NewTray()
		s.Hub = a.NewHub()
		s.Worker = a.NewWorker(s.Tray, s.Hub)
	}
	return s
}

// Run starts polling, the foreground listener and the worker, and blocks
// until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	a := s.app
	log := logging.Component("session")

	in, closeRelay, err := s.connectRelay(ctx)
	if err != nil {
		return err
	}
	defer closeRelay()

	if s.Worker != nil {
		if err := s.Worker.Start(ctx); err != nil {
			return err
		}
	}

	eventbus.NewPollResumer(ctx, a.Bus, s.Reconciler).Register()

	cb := s.opts.OnPush
	if cb == nil {
		cb = func(push.Message) {}
	}
	s.Listener.ListenForForegroundPush(cb)

	a.Subscriptions.CheckSubscriptionStatus(ctx)
	s.Reconciler.StartPolling(ctx)
	log.Info().Str("url", s.opts.URL).Bool("worker", s.Worker != nil).Msg("session started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Listener.Run(gctx, in)
		return nil
	})
	if s.Worker != nil {
		g.Go(func() error {
			return a.ConsumePush(gctx, s.Worker.Push)
		})
	}

	err = g.Wait()
	s.Reconciler.StopPolling()
	s.Reconciler.Wait()
	s.Listener.Wait()
	s.Window.Close()
	log.Info().Msg("session stopped")
	return err
}

// connectRelay registers the session with the worker's hub in local mode, or
// subscribes to the redis channel in redis mode.
func (s *Session) connectRelay(ctx context.Context) (<-chan relay.Envelope, func(), error) {
	a := s.app
	if a.Config.Relay.Mode != config.RelayRedis {
		if s.Hub == nil {
			// No local worker will post to this window.
			return s.Window.Messages(), func() {}, nil
		}
		unregister := s.Hub.Register(s.Window)
		return s.Window.Messages(), unregister, nil
	}

	rdb, err := redisrelay.Dial(ctx, a.RedisOptions())
	if err != nil {
		return nil, nil, err
	}
	in, closeSub, err := redisrelay.Subscribe(ctx, rdb, a.Config.Relay.Channel)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	unregister := func() {}
	if s.Hub != nil {
		unregister = s.Hub.Register(redisrelay.NewClient(rdb, a.Config.Relay.Channel))
	}
	return in, func() {
		unregister()
		_ = closeSub()
		_ = rdb.Close()
	}, nil
}

// NewRelayHub returns a hub for a standalone worker. In redis mode the hub
// forwards to the relay channel; the returned func releases the connection.
func (a *App) NewRelayHub(ctx context.Context) (*relay.Hub, func(), error) {
	hub := a.NewHub()
	if a.Config.Relay.Mode != config.RelayRedis {
		return hub, func() {}, nil
	}

	rdb, err := redisrelay.Dial(ctx, a.RedisOptions())
	if err != nil {
		return nil, nil, err
	}
	unregister := hub.Register(redisrelay.NewClient(rdb, a.Config.Relay.Channel))
	return hub, func() {
		unregister()
		_ = rdb.Close()
	}, nil
}

// ConsumePush feeds pushes from this device's queue to handle until ctx is
// done. The consumer restarts whenever the subscription changes; while the
// device is unsubscribed nothing is consumed.
func (a *App) ConsumePush(ctx context.Context, handle amqppush.Handler) error {
	log := logging.Component("push")

	changed := make(chan struct{}, 1)
	a.Bus.SubscribeSubscriptionChanged(func(eventbus.SubscriptionChangedPayload) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)

		d, ok, err := platform.CurrentDescriptor(ctx, a.Platform)
		switch {
		case err != nil:
			a.Reporter.Handle("push.descriptor", degrade.RetryNextCycle, err)
			close(done)
		case !ok:
			log.Info().Msg("device not subscribed, push delivery idle")
			close(done)
		default:
			queue, qerr := amqppush.QueueFor(d)
			if qerr != nil {
				a.Reporter.Handle("push.queue", degrade.TerminalNoOp, qerr)
				close(done)
				break
			}
			consumer := amqppush.NewConsumer(amqppush.ConsumerConfig{
				BrokerURL: a.Config.Push.BrokerURL,
				Queue:     queue,
				Reporter:  a.Reporter,
			})
			go func() { done <- consumer.Run(runCtx, handle) }()
		}

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case <-changed:
			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("consumer stopped")
			}
		}
	}
}
