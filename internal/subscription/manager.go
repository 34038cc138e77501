// Package subscription manages the device's single push subscription: worker
// registration, permission, key negotiation and backend sync. Every step is
// a no-op when already satisfied, so Subscribe is safe to call on each start.
package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/rs/zerolog"
)

// Backend is the server side of the subscription.
type Backend interface {
	VAPIDKey(ctx context.Context) (string, error)
	Subscribe(ctx context.Context, d push.Descriptor) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

// Result describes how a Subscribe call ended.
type Result string

const (
	ResultUnsupported Result = "unsupported"
	ResultDenied      Result = "denied"
	ResultResynced    Result = "resynced"
	ResultSubscribed  Result = "subscribed"
	ResultFailed      Result = "failed"
)

// Manager owns the subscription lifecycle for one device.
type Manager struct {
	platform platform.Platform
	backend  Backend
	bus      *eventbus.EventBus
	reporter *degrade.Reporter
	log      zerolog.Logger

	// opMu serializes Subscribe and Unsubscribe.
	opMu sync.Mutex

	keyMu    sync.Mutex
	vapidKey string

	mu         sync.Mutex
	subscribed bool
}

// New creates a manager. bus and reporter may be nil.
func New(p platform.Platform, backend Backend, bus *eventbus.EventBus, reporter *degrade.Reporter) *Manager {
	return &Manager{
		platform: p,
		backend:  backend,
		bus:      bus,
		reporter: reporter,
		log:      logging.Component("subscription"),
	}
}

// IsSubscribed reports the in-memory flag. It starts false on every process
// start; call CheckSubscriptionStatus to reconcile it.
func (m *Manager) IsSubscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed
}

func (m *Manager) setSubscribed(v bool, endpoint string) {
	m.mu.Lock()
	m.subscribed = v
	m.mu.Unlock()
	m.bus.PublishSubscriptionChanged(eventbus.SubscriptionChangedPayload{Subscribed: v, Endpoint: endpoint})
}

// Subscribe opts the device in. Failures never surface as errors; the
// returned Result says which branch ran.
func (m *Manager) Subscribe(ctx context.Context) Result {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.platform.Supported() {
		m.reporter.Handle("subscription.support", degrade.TerminalNoOp, platform.ErrUnsupported)
		return ResultUnsupported
	}

	reg, err := m.platform.Register(ctx)
	if err != nil {
		m.reporter.Handle("subscription.register", degrade.RetryNextCycle, err)
		return ResultFailed
	}
	pm := reg.PushManager()

	existing, ok, err := pm.Subscription(ctx)
	if err != nil {
		m.reporter.Handle("subscription.lookup", degrade.RetryNextCycle, err)
		return ResultFailed
	}
	if ok {
		d := existing.Descriptor()
		m.setSubscribed(true, d.Endpoint)
		m.sync(ctx, d)
		m.log.Debug().Str("endpoint", d.Endpoint).Msg("resynced existing subscription")
		return ResultResynced
	}

	perm, err := m.platform.RequestPermission(ctx)
	if err != nil {
		m.reporter.Handle("subscription.permission", degrade.TerminalNoOp, err)
		return ResultDenied
	}
	if perm != platform.PermissionGranted {
		m.reporter.Handle("subscription.permission", degrade.TerminalNoOp,
			fmt.Errorf("%w: %s", platform.ErrPermissionDenied, perm))
		return ResultDenied
	}

	key, err := m.serverKey(ctx)
	if err != nil {
		m.reporter.Handle("subscription.vapid-key", degrade.RetryNextCycle, err)
		return ResultFailed
	}

	sub, err := pm.Subscribe(ctx, key)
	if err != nil {
		m.reporter.Handle("subscription.subscribe", degrade.RetryNextCycle, err)
		return ResultFailed
	}

	d := sub.Descriptor()
	m.sync(ctx, d)
	m.setSubscribed(true, d.Endpoint)
	m.log.Info().Str("endpoint", d.Endpoint).Msg("subscribed")
	return ResultSubscribed
}

// sync pushes d to the backend. The platform subscription stays
// authoritative when this fails; the next Subscribe resyncs it.
func (m *Manager) sync(ctx context.Context, d push.Descriptor) {
	if err := m.backend.Subscribe(ctx, d); err != nil {
		m.reporter.Handle("subscription.sync", degrade.RetryNextCycle, err)
	}
}

// serverKey returns the application server key, fetched once per process.
func (m *Manager) serverKey(ctx context.Context) (string, error) {
	m.keyMu.Lock()
	defer m.keyMu.Unlock()

	if m.vapidKey != "" {
		return m.vapidKey, nil
	}

	key, err := m.backend.VAPIDKey(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch vapid key: %w", err)
	}
	m.vapidKey = key
	return key, nil
}

// Unsubscribe tears the subscription down. The backend is told first on a
// best-effort basis. Only a failure to remove the platform subscription is
// returned.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.platform.Supported() {
		return nil
	}

	reg, ok, err := m.platform.Registration(ctx)
	if err != nil {
		return fmt.Errorf("lookup registration: %w", err)
	}
	if !ok {
		m.setSubscribed(false, "")
		return nil
	}

	sub, ok, err := reg.PushManager().Subscription(ctx)
	if err != nil {
		return fmt.Errorf("lookup subscription: %w", err)
	}
	if !ok {
		m.setSubscribed(false, "")
		return nil
	}

	endpoint := sub.Descriptor().Endpoint
	if err := m.backend.Unsubscribe(ctx, endpoint); err != nil {
		m.reporter.Handle("subscription.unsync", degrade.BestEffort, err)
	}

	if err := sub.Unsubscribe(ctx); err != nil {
		return err
	}

	m.setSubscribed(false, endpoint)
	m.log.Info().Str("endpoint", endpoint).Msg("unsubscribed")
	return nil
}

// CheckSubscriptionStatus sets the in-memory flag from the platform's actual
// subscription state and returns it. It never creates anything.
func (m *Manager) CheckSubscriptionStatus(ctx context.Context) bool {
	if !m.platform.Supported() {
		return m.IsSubscribed()
	}
	d, ok, err := platform.CurrentDescriptor(ctx, m.platform)
	if err != nil {
		m.reporter.Handle("subscription.status", degrade.BestEffort, err)
		return m.IsSubscribed()
	}

	m.mu.Lock()
	m.subscribed = ok
	m.mu.Unlock()
	m.log.Debug().Bool("subscribed", ok).Str("endpoint", d.Endpoint).Msg("subscription status")
	return ok
}
