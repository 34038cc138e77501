package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ordernotify/internal/core/kv"
	"github.com/colonyops/ordernotify/internal/data/db"
)

func newTestKVStore(t *testing.T) (*KVStore, *db.DB) {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewKVStore(database), database
}

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestKVStore(t)

	type registration struct {
		ID    string `json:"id"`
		Scope string `json:"scope"`
	}

	require.NoError(t, store.Set(ctx, "push:registration", registration{ID: "r-1", Scope: "/"}))

	var got registration
	require.NoError(t, store.Get(ctx, "push:registration", &got))
	assert.Equal(t, registration{ID: "r-1", Scope: "/"}, got)
}

func TestKVStore_GetMissing(t *testing.T) {
	store, _ := newTestKVStore(t)

	var v string
	err := store.Get(context.Background(), "push:registration", &v)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestKVStore_OverwriteKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store, database := newTestKVStore(t)

	first := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return first }
	require.NoError(t, store.Set(ctx, "order_status:seen", map[string]string{"1": "pending"}))

	store.now = func() time.Time { return first.Add(time.Minute) }
	require.NoError(t, store.Set(ctx, "order_status:seen", map[string]string{"1": "confirmed"}))

	row, err := database.Queries().KVGet(ctx, "order_status:seen")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"confirmed"}`, string(row.Value))
	assert.Equal(t, first.UnixNano(), row.CreatedAt)
	assert.Equal(t, first.Add(time.Minute).UnixNano(), row.UpdatedAt)
}

func TestKVStore_DeleteAndHas(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestKVStore(t)

	has, err := store.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.Set(ctx, "k", true))
	has, err = store.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Delete(ctx, "k"))
	has, err = store.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, has)

	assert.NoError(t, store.Delete(ctx, "k"), "deleting a missing key is fine")
}

func TestKVStore_UnmarshalErrorIsNotMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "num", 42))

	var got map[string]string
	err := store.Get(ctx, "num", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
}
