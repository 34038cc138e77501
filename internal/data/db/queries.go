package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries groups the statements used by the stores.
type Queries struct {
	db DBTX
}

// KvStore is a row of the kv_store table.
type KvStore struct {
	Key       string
	Value     []byte
	CreatedAt int64
	UpdatedAt int64
}

// KVSetParams are the arguments of KVSet.
type KVSetParams struct {
	Key       string
	Value     []byte
	CreatedAt int64
	UpdatedAt int64
}

// Delivery is a row of the deliveries table.
type Delivery struct {
	ID        int64
	Tag       string
	Type      string
	Title     string
	Body      string
	Url       string
	Collapsed bool
	CreatedAt int64
}

// InsertDeliveryParams are the arguments of InsertDelivery.
type InsertDeliveryParams struct {
	Tag       string
	Type      string
	Title     string
	Body      string
	Url       string
	Collapsed bool
	CreatedAt int64
}

const kvGet = `SELECT key, value, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	var row KvStore
	err := q.db.QueryRowContext(ctx, kvGet, key).Scan(&row.Key, &row.Value, &row.CreatedAt, &row.UpdatedAt)
	return row, err
}

const kvSet = `
INSERT INTO kv_store (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet, arg.Key, arg.Value, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

const kvHas = `SELECT COUNT(*) FROM kv_store WHERE key = ?`

func (q *Queries) KVHas(ctx context.Context, key string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, kvHas, key).Scan(&count)
	return count, err
}

const insertDelivery = `
INSERT INTO deliveries (tag, type, title, body, url, collapsed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) InsertDelivery(ctx context.Context, arg InsertDeliveryParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, insertDelivery,
		arg.Tag, arg.Type, arg.Title, arg.Body, arg.Url, arg.Collapsed, arg.CreatedAt,
	).Scan(&id)
	return id, err
}

const listDeliveries = `
SELECT id, tag, type, title, body, url, collapsed, created_at
FROM deliveries
ORDER BY created_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListDeliveries(ctx context.Context, limit int64) ([]Delivery, error) {
	rows, err := q.db.QueryContext(ctx, listDeliveries, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.Tag, &d.Type, &d.Title, &d.Body, &d.Url, &d.Collapsed, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const deleteAllDeliveries = `DELETE FROM deliveries`

func (q *Queries) DeleteAllDeliveries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllDeliveries)
	return err
}

const countDeliveries = `SELECT COUNT(*) FROM deliveries`

func (q *Queries) CountDeliveries(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDeliveries).Scan(&count)
	return count, err
}

const deleteDeliveriesBefore = `DELETE FROM deliveries WHERE created_at < ?`

func (q *Queries) DeleteDeliveriesBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteDeliveriesBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
