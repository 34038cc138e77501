// Package worker is the push delivery worker. It runs outside any page
// session, renders OS notifications for pushed payloads and relays each
// payload to open page sessions.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/relay"
	"github.com/colonyops/ordernotify/internal/tray"
	"github.com/rs/zerolog"
)

// ErrNotActive is returned when a push arrives before activation.
var ErrNotActive = errors.New("worker is not active")

// Notification actions.
const (
	ActionOpen    = "open"
	ActionDismiss = "dismiss"
)

// DefaultIcon is used for icon and badge when none is configured.
const DefaultIcon = "/icon.png"

// Vibrate is the alert pattern for every rendered notification.
var Vibrate = []int{200, 100, 200, 100, 400}

// State is the worker lifecycle state.
type State int

const (
	StateInstalling State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Config configures a Worker.
type Config struct {
	AppName string
	Icon    string
	Badge   string
	// Origin identifies page sessions that belong to the app. A click
	// focuses the first client whose URL starts with it.
	Origin string

	Tray     *tray.Center
	Hub      *relay.Hub
	Bus      *eventbus.EventBus
	Reporter *degrade.Reporter

	// RelayTimeout bounds a single PostMessage. Zero means 2s.
	RelayTimeout time.Duration
	Now          func() time.Time
}

// Worker handles install, activate, push and notification click events.
type Worker struct {
	cfg Config
	log zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates a worker in the installing state and attaches it to the
// tray's click events.
func New(cfg Config) *Worker {
	if cfg.Icon == "" {
		cfg.Icon = DefaultIcon
	}
	if cfg.Badge == "" {
		cfg.Badge = cfg.Icon
	}
	if cfg.RelayTimeout <= 0 {
		cfg.RelayTimeout = 2 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	w := &Worker{cfg: cfg, log: logging.Component("worker"), state: StateInstalling}
	cfg.Tray.OnClick(w.NotificationClick)
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Install handles the install event. A new worker does not wait for older
// instances to go away.
func (w *Worker) Install(ctx context.Context) error {
	w.log.Debug().Msg("install")
	return nil
}

// Activate takes control of every open page session and moves the worker
// to active.
func (w *Worker) Activate(ctx context.Context) error {
	ev := newEvent(ctx)
	ev.WaitUntil(func(context.Context) error {
		n := w.cfg.Hub.Claim()
		w.log.Info().Int("clients", n).Msg("claimed clients")
		return nil
	})
	if err := ev.Wait(); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	w.mu.Lock()
	w.state = StateActive
	w.mu.Unlock()
	return nil
}

// Start runs Install then Activate.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}

// Push handles one push payload. An empty payload is ignored. Rendering
// and relaying run concurrently and Push returns once both finished.
func (w *Worker) Push(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if w.State() != StateActive {
		return ErrNotActive
	}

	msg, fallback := push.Decode(data, w.cfg.AppName, w.cfg.Now())
	if fallback {
		w.cfg.Reporter.Handle("worker.decode", degrade.FallbackValue, fmt.Errorf("payload is not a JSON object: %q", truncate(data, 64)))
	}

	ev := newEvent(ctx)
	ev.WaitUntil(func(ctx context.Context) error { return w.render(ctx, msg) })
	ev.WaitUntil(func(ctx context.Context) error { return w.relay(ctx, msg) })
	return ev.Wait()
}

// Options builds the notification options for msg.
func (w *Worker) Options(msg push.Message) tray.Options {
	return tray.Options{
		Body:               msg.Body,
		Icon:               w.cfg.Icon,
		Badge:              w.cfg.Badge,
		Tag:                msg.Tag(),
		Renotify:           true,
		RequireInteraction: true,
		Vibrate:            Vibrate,
		Actions: []tray.Action{
			{Action: ActionOpen, Title: "Otwórz"},
			{Action: ActionDismiss, Title: "Zamknij"},
		},
		Data: tray.Data{URL: msg.TargetURL(), Type: msg.Type},
	}
}

func (w *Worker) render(ctx context.Context, msg push.Message) error {
	collapsed, err := w.cfg.Tray.Show(ctx, msg.Title, w.Options(msg))
	if err != nil {
		return fmt.Errorf("show notification: %w", err)
	}

	w.log.Info().Str("tag", msg.Tag()).Bool("collapsed", collapsed).Msg("push rendered")
	if w.cfg.Bus != nil {
		w.cfg.Bus.PublishPushRendered(eventbus.PushRenderedPayload{Message: msg, Collapsed: collapsed})
	}
	return nil
}

func (w *Worker) relay(ctx context.Context, msg push.Message) error {
	env, err := relay.PushReceived(msg)
	if err != nil {
		return err
	}

	for _, c := range w.cfg.Hub.MatchAll(true) {
		pctx, cancel := context.WithTimeout(ctx, w.cfg.RelayTimeout)
		err := c.PostMessage(pctx, env)
		cancel()
		w.cfg.Reporter.Handle("worker.relay", degrade.BestEffort, err)
	}
	return nil
}

// NotificationClick closes the clicked notification. Unless the dismiss
// action was used it focuses an existing page session of the app, or opens
// the notification's URL when none can be focused.
func (w *Worker) NotificationClick(ctx context.Context, ev tray.ClickEvent) error {
	w.cfg.Tray.Close(ctx, ev.Notification.Tag)
	if ev.Action == ActionDismiss {
		return nil
	}

	url := ev.Notification.Data.URL
	if url == "" {
		url = push.DefaultURL
	}

	for _, c := range w.cfg.Hub.MatchAll(true) {
		f, ok := c.(relay.Focuser)
		if !ok || c.URL() == "" || !strings.HasPrefix(c.URL(), w.cfg.Origin) {
			continue
		}
		err := f.Focus(ctx)
		if err == nil {
			return nil
		}
		w.cfg.Reporter.Handle("worker.focus", degrade.BestEffort, err)
	}
	return w.cfg.Hub.OpenWindow(ctx, url)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
