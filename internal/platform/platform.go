// Package platform describes the device push capabilities the subscription
// manager drives: worker registration, notification permission and the push
// subscription itself.
package platform

import (
	"context"
	"errors"

	"github.com/colonyops/ordernotify/internal/core/push"
)

var (
	// ErrUnsupported is returned when the device cannot receive background pushes.
	ErrUnsupported = errors.New("push messaging is not supported on this device")
	// ErrPermissionDenied records a refused permission request.
	ErrPermissionDenied = errors.New("notification permission denied")
)

// Permission is the user's notification permission decision.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Platform is the device's push-capable runtime.
type Platform interface {
	// Supported reports whether background push messaging is available.
	Supported() bool
	// Register returns the worker registration, creating it if needed.
	Register(ctx context.Context) (Registration, error)
	// Registration returns the existing registration without creating one.
	Registration(ctx context.Context) (Registration, bool, error)
	// RequestPermission asks for notification permission. A stored decision
	// is returned without asking again.
	RequestPermission(ctx context.Context) (Permission, error)
}

// Registration is a registered push delivery worker.
type Registration interface {
	Scope() string
	PushManager() PushManager
}

// PushManager owns the registration's push subscription.
type PushManager interface {
	// Subscription returns the live subscription, if any.
	Subscription(ctx context.Context) (Subscription, bool, error)
	// Subscribe creates a subscription bound to the application server key
	// (URL-safe base64 of an uncompressed P-256 point).
	Subscribe(ctx context.Context, appServerKey string) (Subscription, error)
}

// Subscription is a live platform push subscription.
type Subscription interface {
	Descriptor() push.Descriptor
	Unsubscribe(ctx context.Context) error
}

// CurrentDescriptor returns the descriptor of the live subscription, if the
// device has one. It never registers or subscribes.
func CurrentDescriptor(ctx context.Context, p Platform) (push.Descriptor, bool, error) {
	if !p.Supported() {
		return push.Descriptor{}, false, nil
	}
	reg, ok, err := p.Registration(ctx)
	if err != nil || !ok {
		return push.Descriptor{}, false, err
	}
	sub, ok, err := reg.PushManager().Subscription(ctx)
	if err != nil || !ok {
		return push.Descriptor{}, false, err
	}
	return sub.Descriptor(), true, nil
}
