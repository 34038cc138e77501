package redisrelay

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	env, err := Decode(`{"type":"PUSH_RECEIVED","data":{"title":"t","body":"b","type":"order","id":7}}`)
	require.NoError(t, err)
	assert.Equal(t, relay.TypePushReceived, env.Type)
	assert.JSONEq(t, `{"title":"t","body":"b","type":"order","id":7}`, string(env.Data))

	_, err = Decode("not json")
	require.Error(t, err)
}

// TestRoundTrip needs a live redis; set ORDERNOTIFY_TEST_REDIS_ADDR to run it.
func TestRoundTrip(t *testing.T) {
	addr := os.Getenv("ORDERNOTIFY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ORDERNOTIFY_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := Dial(ctx, Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	channel := "ordernotify:test:" + t.Name()
	envs, closeFn, err := Subscribe(ctx, rdb, channel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	env, err := relay.PushReceived(push.Message{Title: "t", Type: "order", ID: push.NumberID(3)})
	require.NoError(t, err)
	require.NoError(t, NewClient(rdb, channel).PostMessage(ctx, env))

	select {
	case got := <-envs:
		assert.Equal(t, relay.TypePushReceived, got.Type)
		assert.JSONEq(t, string(env.Data), string(got.Data))
	case <-ctx.Done():
		t.Fatal("no envelope received")
	}
}
