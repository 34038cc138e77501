// Package tray is the device notification center the push worker renders
// into. It keeps the on-screen set keyed by tag, counts alert cues and
// hands rendering to a Backend.
package tray

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Click for a tag that is not on screen.
var ErrNotFound = errors.New("notification not found")

// Action is a button on a notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Data is the application payload attached to a notification.
type Data struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Options mirrors the platform notification options.
type Options struct {
	Body               string
	Icon               string
	Badge              string
	Tag                string
	Renotify           bool
	RequireInteraction bool
	Silent             bool
	Vibrate            []int
	Actions            []Action
	Data               Data
}

// Notification is an on-screen notification.
type Notification struct {
	Title string
	Options
	ShownAt time.Time
}

// ClickEvent is delivered to the click handler. Action is empty for a click
// on the notification body.
type ClickEvent struct {
	Notification Notification
	Action       string
}

// ClickHandler reacts to a notification click.
type ClickHandler func(ctx context.Context, ev ClickEvent) error

// Backend renders notifications on the host.
type Backend interface {
	Show(ctx context.Context, n Notification) error
	Close(ctx context.Context, tag string) error
}

// Config configures a Center.
type Config struct {
	Backend Backend
	// Log receives one delivery per shown notification. May be nil.
	Log      notify.DeliveryStore
	Reporter *degrade.Reporter
	// Expiry closes notifications that do not require interaction after
	// this long. Zero keeps them until closed.
	Expiry time.Duration
}

type entry struct {
	n     Notification
	timer *time.Timer
}

// Center holds the visible notifications.
type Center struct {
	cfg Config
	log zerolog.Logger

	mu      sync.Mutex
	visible []*entry
	alerts  int
	onClick ClickHandler
}

// NewCenter creates an empty notification center.
func NewCenter(cfg Config) *Center {
	if cfg.Backend == nil {
		cfg.Backend = LogBackend{}
	}
	return &Center{cfg: cfg, log: logging.Component("tray")}
}

// OnClick sets the click handler.
func (c *Center) OnClick(fn ClickHandler) {
	c.mu.Lock()
	c.onClick = fn
	c.mu.Unlock()
}

// Show displays a notification. A notification with the same non-empty tag
// is replaced in place and collapsed reports true. An alert cue fires for a
// new notification, or for a replacement when Renotify is set, unless Silent.
func (c *Center) Show(ctx context.Context, title string, opts Options) (collapsed bool, err error) {
	n := Notification{Title: title, Options: opts, ShownAt: time.Now()}

	c.mu.Lock()
	idx := -1
	if opts.Tag != "" {
		idx = slices.IndexFunc(c.visible, func(e *entry) bool { return e.n.Tag == opts.Tag })
	}
	e := &entry{n: n}
	if idx >= 0 {
		collapsed = true
		if old := c.visible[idx]; old.timer != nil {
			old.timer.Stop()
		}
		c.visible[idx] = e
	} else {
		c.visible = append(c.visible, e)
	}
	alert := !opts.Silent && (!collapsed || opts.Renotify)
	if alert {
		c.alerts++
	}
	if !opts.RequireInteraction && c.cfg.Expiry > 0 {
		e.timer = time.AfterFunc(c.cfg.Expiry, func() { c.expire(e) })
	}
	c.mu.Unlock()

	c.log.Debug().
		Str("tag", opts.Tag).
		Bool("collapsed", collapsed).
		Bool("alert", alert).
		Msg("notification shown")

	if err := c.cfg.Backend.Show(ctx, n); err != nil {
		c.cfg.Reporter.Handle("tray.backend", degrade.BestEffort, err)
	}
	c.record(ctx, n, collapsed)

	return collapsed, nil
}

func (c *Center) record(ctx context.Context, n Notification, collapsed bool) {
	if c.cfg.Log == nil {
		return
	}
	_, err := c.cfg.Log.Save(ctx, notify.Delivery{
		Tag:       n.Tag,
		Type:      n.Data.Type,
		Title:     n.Title,
		Body:      n.Body,
		URL:       n.Data.URL,
		Collapsed: collapsed,
		CreatedAt: n.ShownAt,
	})
	c.cfg.Reporter.Handle("tray.log", degrade.BestEffort, err)
}

func (c *Center) expire(e *entry) {
	c.mu.Lock()
	idx := slices.Index(c.visible, e)
	if idx >= 0 {
		c.visible = slices.Delete(c.visible, idx, idx+1)
	}
	c.mu.Unlock()
}

// Close removes the notification with tag. It reports whether one was open.
func (c *Center) Close(ctx context.Context, tag string) bool {
	c.mu.Lock()
	idx := slices.IndexFunc(c.visible, func(e *entry) bool { return e.n.Tag == tag })
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	if t := c.visible[idx].timer; t != nil {
		t.Stop()
	}
	c.visible = slices.Delete(c.visible, idx, idx+1)
	c.mu.Unlock()

	if err := c.cfg.Backend.Close(ctx, tag); err != nil {
		c.cfg.Reporter.Handle("tray.close", degrade.BestEffort, err)
	}
	return true
}

// Visible returns the on-screen notifications, oldest first.
func (c *Center) Visible() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.visible))
	for i, e := range c.visible {
		out[i] = e.n
	}
	return out
}

// Alerts returns the number of alert cues fired so far.
func (c *Center) Alerts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alerts
}

// Click simulates the user clicking the notification with tag, optionally
// on one of its actions, and runs the click handler.
func (c *Center) Click(ctx context.Context, tag, action string) error {
	c.mu.Lock()
	idx := slices.IndexFunc(c.visible, func(e *entry) bool { return e.n.Tag == tag })
	handler := c.onClick
	var n Notification
	if idx >= 0 {
		n = c.visible[idx].n
	}
	c.mu.Unlock()

	if idx < 0 {
		return ErrNotFound
	}
	if handler == nil {
		return nil
	}
	return handler(ctx, ClickEvent{Notification: n, Action: action})
}
