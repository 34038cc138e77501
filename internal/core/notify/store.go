// Package notify holds the two notification shapes of the system: the
// in-page records emitted by the status reconciler, and the delivery log of
// OS-level notifications rendered by the push worker.
package notify

import (
	"context"
	"time"

	"github.com/colonyops/ordernotify/internal/core/order"
)

// Record is a notification synthesized from a genuine order status
// transition. Records live only in memory for the current page session.
type Record struct {
	ID         int64
	OrderID    int64
	Status     order.Status
	ETAMinutes *int
	Message    string
}

// Delivery is a log entry for an OS notification shown by the push worker.
type Delivery struct {
	ID        int64
	Tag       string
	Type      string
	Title     string
	Body      string
	URL       string
	Collapsed bool // replaced an on-screen notification with the same tag
	CreatedAt time.Time
}

// DeliveryStore persists the delivery log to durable storage.
type DeliveryStore interface {
	Save(ctx context.Context, d Delivery) (int64, error)
	List(ctx context.Context, limit int) ([]Delivery, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
