// Package local is the device push platform backed by the local KV store and
// the AMQP push transport. Registrations and subscriptions survive restarts;
// the subscription endpoint names the queue the worker consumes.
package local

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/colonyops/ordernotify/internal/core/kv"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/google/uuid"
)

const (
	namespace       = "platform"
	keyRegistration = "registration"
	keyPermission   = "permission"
	authSecretSize  = 16
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// Options configures the local platform.
type Options struct {
	// EndpointBase is the broker URL subscriptions are published under. An
	// empty value means the device has no push transport and is unsupported.
	EndpointBase string
	QueuePrefix  string
	Scope        string
	AppName      string
	// Prompter is asked for notification permission. Nil leaves the
	// permission undecided.
	Prompter Prompter
}

type registrationRecord struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
}

type subscriptionRecord struct {
	Endpoint     string    `json:"endpoint"`
	P256dh       string    `json:"p256dh"`
	Auth         string    `json:"auth"`
	PrivateKey   string    `json:"private_key"`
	AppServerKey string    `json:"app_server_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// Platform implements platform.Platform.
type Platform struct {
	opts          Options
	registrations *kv.TypedKV[registrationRecord]
	subscriptions *kv.TypedKV[subscriptionRecord]
	permissions   *kv.TypedKV[platform.Permission]
}

var _ platform.Platform = (*Platform)(nil)

// New creates a platform persisting its state in store.
func New(store kv.KV, opts Options) (*Platform, error) {
	if opts.EndpointBase != "" {
		base, err := push.EndpointBase(opts.EndpointBase)
		if err != nil {
			return nil, fmt.Errorf("endpoint base: %w", err)
		}
		opts.EndpointBase = base
	}
	if opts.Scope == "" {
		opts.Scope = "/"
	}
	if opts.AppName == "" {
		opts.AppName = "ordernotify"
	}

	return &Platform{
		opts:          opts,
		registrations: kv.Scoped[registrationRecord](store, namespace),
		subscriptions: kv.Scoped[subscriptionRecord](store, namespace+".subscription"),
		permissions:   kv.Scoped[platform.Permission](store, namespace),
	}, nil
}

func (p *Platform) Supported() bool {
	return p.opts.EndpointBase != ""
}

func (p *Platform) Register(ctx context.Context) (platform.Registration, error) {
	if !p.Supported() {
		return nil, platform.ErrUnsupported
	}

	reg, ok, err := p.lookup(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return reg, nil
	}

	rec := registrationRecord{
		ID:        uuid.NewString(),
		Scope:     p.opts.Scope,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.registrations.Set(ctx, keyRegistration, rec); err != nil {
		return nil, fmt.Errorf("register worker: %w", err)
	}
	return &Registration{platform: p, rec: rec}, nil
}

func (p *Platform) Registration(ctx context.Context) (platform.Registration, bool, error) {
	if !p.Supported() {
		return nil, false, nil
	}
	reg, ok, err := p.lookup(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return reg, true, nil
}

func (p *Platform) lookup(ctx context.Context) (*Registration, bool, error) {
	has, err := p.registrations.Has(ctx, keyRegistration)
	if err != nil {
		return nil, false, fmt.Errorf("lookup registration: %w", err)
	}
	if !has {
		return nil, false, nil
	}
	rec, err := p.registrations.Get(ctx, keyRegistration)
	if err != nil {
		return nil, false, fmt.Errorf("lookup registration: %w", err)
	}
	return &Registration{platform: p, rec: rec}, true, nil
}

func (p *Platform) RequestPermission(ctx context.Context) (platform.Permission, error) {
	current, err := p.permissions.GetOr(ctx, keyPermission, platform.PermissionDefault)
	if err != nil {
		return platform.PermissionDefault, fmt.Errorf("read permission: %w", err)
	}
	if current != platform.PermissionDefault {
		return current, nil
	}
	if p.opts.Prompter == nil {
		return platform.PermissionDefault, nil
	}

	ok, err := p.opts.Prompter.Confirm(ctx,
		fmt.Sprintf("Allow %s to show notifications?", p.opts.AppName),
		"Order updates are shown even when no watch session is open.",
	)
	if err != nil {
		return platform.PermissionDefault, fmt.Errorf("prompt permission: %w", err)
	}

	decision := platform.PermissionDenied
	if ok {
		decision = platform.PermissionGranted
	}
	if err := p.permissions.Set(ctx, keyPermission, decision); err != nil {
		return decision, fmt.Errorf("store permission: %w", err)
	}
	return decision, nil
}

// Permission returns the stored decision without prompting.
func (p *Platform) Permission(ctx context.Context) (platform.Permission, error) {
	return p.permissions.GetOr(ctx, keyPermission, platform.PermissionDefault)
}

// ResetPermission forgets the stored decision so the next request prompts.
func (p *Platform) ResetPermission(ctx context.Context) error {
	return p.permissions.Delete(ctx, keyPermission)
}

// Registration is the persisted worker registration.
type Registration struct {
	platform *Platform
	rec      registrationRecord
}

// ID is the device identifier assigned at registration.
func (r *Registration) ID() string { return r.rec.ID }

func (r *Registration) Scope() string { return r.rec.Scope }

func (r *Registration) PushManager() platform.PushManager {
	return &pushManager{platform: r.platform, reg: r.rec}
}

type pushManager struct {
	platform *Platform
	reg      registrationRecord
}

func (m *pushManager) Subscription(ctx context.Context) (platform.Subscription, bool, error) {
	subs := m.platform.subscriptions
	has, err := subs.Has(ctx, m.reg.ID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup subscription: %w", err)
	}
	if !has {
		return nil, false, nil
	}
	rec, err := subs.Get(ctx, m.reg.ID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup subscription: %w", err)
	}
	return &Subscription{manager: m, rec: rec}, true, nil
}

func (m *pushManager) Subscribe(ctx context.Context, appServerKey string) (platform.Subscription, error) {
	if _, err := platform.ParseApplicationServerKey(appServerKey); err != nil {
		return nil, err
	}

	existing, ok, err := m.Subscription(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		sub := existing.(*Subscription)
		if sub.rec.AppServerKey != appServerKey {
			return nil, fmt.Errorf("subscribe: a subscription with a different application server key exists")
		}
		return sub, nil
	}

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate subscription key: %w", err)
	}
	auth := make([]byte, authSecretSize)
	if _, err := rand.Read(auth); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}

	opts := m.platform.opts
	rec := subscriptionRecord{
		Endpoint:     opts.EndpointBase + "/" + opts.QueuePrefix + uuid.NewString(),
		P256dh:       platform.EncodeKey(priv.PublicKey().Bytes()),
		Auth:         platform.EncodeKey(auth),
		PrivateKey:   platform.EncodeKey(priv.Bytes()),
		AppServerKey: appServerKey,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.platform.subscriptions.Set(ctx, m.reg.ID, rec); err != nil {
		return nil, fmt.Errorf("store subscription: %w", err)
	}
	return &Subscription{manager: m, rec: rec}, nil
}

// Subscription is a persisted push subscription.
type Subscription struct {
	manager *pushManager
	rec     subscriptionRecord
}

func (s *Subscription) Descriptor() push.Descriptor {
	return push.Descriptor{
		Endpoint: s.rec.Endpoint,
		P256dh:   s.rec.P256dh,
		Auth:     s.rec.Auth,
	}
}

func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if err := s.manager.platform.subscriptions.Delete(ctx, s.manager.reg.ID); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}
