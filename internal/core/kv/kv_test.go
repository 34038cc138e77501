package kv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ordernotify/internal/core/kv"
	"github.com/colonyops/ordernotify/internal/data/db"
	"github.com/colonyops/ordernotify/internal/data/stores"
)

func backends(t *testing.T) map[string]kv.KV {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return map[string]kv.KV{
		"sqlite": stores.NewKVStore(database),
		"memory": kv.NewMemory(),
	}
}

func TestKV_Contract(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var dest string
			require.ErrorIs(t, store.Get(ctx, "nope", &dest), kv.ErrNotFound)

			has, err := store.Has(ctx, "k")
			require.NoError(t, err)
			assert.False(t, has)

			require.NoError(t, store.Set(ctx, "k", "v1"))
			require.NoError(t, store.Set(ctx, "k", "v2"))
			require.NoError(t, store.Get(ctx, "k", &dest))
			assert.Equal(t, "v2", dest)

			require.NoError(t, store.Delete(ctx, "k"))
			has, err = store.Has(ctx, "k")
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestScoped_IsolatesNamespaces(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			registrations := kv.Scoped[string](store, "push")
			subscriptions := kv.Scoped[string](store, "push.subscription")

			require.NoError(t, registrations.Set(ctx, "r-1", "registration"))
			require.NoError(t, subscriptions.Set(ctx, "r-1", "subscription"))

			r, err := registrations.Get(ctx, "r-1")
			require.NoError(t, err)
			assert.Equal(t, "registration", r)

			s, err := subscriptions.Get(ctx, "r-1")
			require.NoError(t, err)
			assert.Equal(t, "subscription", s)

			var raw string
			require.NoError(t, store.Get(ctx, "push.subscription:r-1", &raw))
			assert.Equal(t, "subscription", raw)
		})
	}
}

func TestTypedKV_GetOr(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[map[int64]string](kv.NewMemory(), "order_status")

	got, err := typed.GetOr(ctx, "seen", map[int64]string{})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, typed.Set(ctx, "seen", map[int64]string{1: "pending"}))
	got, err = typed.GetOr(ctx, "seen", nil)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "pending"}, got)

	_, err = typed.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestTypedKV_GetOr_Corrupt(t *testing.T) {
	mem := kv.NewMemory()
	mem.SetRaw("order_status:seen", []byte("{not json"))

	got, err := kv.Scoped[map[int64]string](mem, "order_status").GetOr(context.Background(), "seen", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
	assert.Nil(t, got)
}

func TestTypedKV_HasAndDelete(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[bool](kv.NewMemory(), "permission")

	require.NoError(t, typed.Set(ctx, "notifications", true))
	has, err := typed.Has(ctx, "notifications")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, typed.Delete(ctx, "notifications"))
	has, err = typed.Has(ctx, "notifications")
	require.NoError(t, err)
	assert.False(t, has)
}
