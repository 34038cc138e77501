// Package kv defines the device-local key-value contract used for persisted
// client state: seen order statuses, the push registration and subscription,
// and the notification permission.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by Get when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

// KV stores JSON-encoded values under string keys.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
}
