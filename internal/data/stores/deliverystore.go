package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/data/db"
)

// DeliveryStore implements notify.DeliveryStore using SQLite.
type DeliveryStore struct {
	db *db.DB
}

var _ notify.DeliveryStore = (*DeliveryStore)(nil)

// NewDeliveryStore creates a new SQLite-backed delivery log.
func NewDeliveryStore(db *db.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

// Save persists a delivery and returns its auto-generated ID.
func (s *DeliveryStore) Save(ctx context.Context, d notify.Delivery) (int64, error) {
	if d.URL == "" {
		d.URL = push.DefaultURL
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	id, err := s.db.Queries().InsertDelivery(ctx, db.InsertDeliveryParams{
		Tag:       d.Tag,
		Type:      d.Type,
		Title:     d.Title,
		Body:      d.Body,
		Url:       d.URL,
		Collapsed: d.Collapsed,
		CreatedAt: d.CreatedAt.UnixNano(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert delivery: %w", err)
	}

	return id, nil
}

// List returns up to limit deliveries, newest first. A non-positive limit
// returns everything.
func (s *DeliveryStore) List(ctx context.Context, limit int) ([]notify.Delivery, error) {
	n := int64(limit)
	if n <= 0 {
		n = -1
	}

	rows, err := s.db.Queries().ListDeliveries(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}

	result := make([]notify.Delivery, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToDelivery(row))
	}

	return result, nil
}

// Clear deletes all deliveries.
func (s *DeliveryStore) Clear(ctx context.Context) error {
	if err := s.db.Queries().DeleteAllDeliveries(ctx); err != nil {
		return fmt.Errorf("clear deliveries: %w", err)
	}
	return nil
}

// Count returns the total number of deliveries.
func (s *DeliveryStore) Count(ctx context.Context) (int64, error) {
	count, err := s.db.Queries().CountDeliveries(ctx)
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return count, nil
}

// PruneBefore deletes deliveries created before cutoff and reports how many
// were removed.
func (s *DeliveryStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.db.Queries().DeleteDeliveriesBefore(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return n, nil
}

func rowToDelivery(row db.Delivery) notify.Delivery {
	return notify.Delivery{
		ID:        row.ID,
		Tag:       row.Tag,
		Type:      row.Type,
		Title:     row.Title,
		Body:      row.Body,
		URL:       row.Url,
		Collapsed: row.Collapsed,
		CreatedAt: time.Unix(0, row.CreatedAt),
	}
}
