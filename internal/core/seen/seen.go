// Package seen persists the last status this device observed for each order.
// The reconciler is its only writer.
package seen

import (
	"context"
	"fmt"
	"maps"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/kv"
	"github.com/colonyops/ordernotify/internal/core/order"
)

const (
	namespace = "order_status"
	key       = "seen"
)

// Map is order ID to last observed status. A missing key means the order was
// never observed, not that its status is unknown.
type Map map[int64]order.Status

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	maps.Copy(out, m)
	return out
}

// Store reads and writes the seen map as a single JSON document.
type Store struct {
	typed    *kv.TypedKV[Map]
	reporter *degrade.Reporter
}

// NewStore binds the seen map to a KV backend. reporter may be nil.
func NewStore(backend kv.KV, reporter *degrade.Reporter) *Store {
	return &Store{
		typed:    kv.Scoped[Map](backend, namespace),
		reporter: reporter,
	}
}

// Load returns the persisted map. A missing or undecodable document yields an
// empty map; the read never fails.
func (s *Store) Load(ctx context.Context) Map {
	m, err := s.typed.GetOr(ctx, key, Map{})
	if err != nil {
		s.reporter.Handle("seen.load", degrade.FallbackValue, err)
		return Map{}
	}
	if m == nil {
		return Map{}
	}
	return m
}

// Save replaces the persisted map with m.
func (s *Store) Save(ctx context.Context, m Map) error {
	if err := s.typed.Set(ctx, key, m); err != nil {
		return fmt.Errorf("save seen state: %w", err)
	}
	return nil
}

// Reset forgets every order, so the next poll bootstraps from scratch.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.typed.Delete(ctx, key); err != nil {
		return fmt.Errorf("reset seen state: %w", err)
	}
	return nil
}
