package doctor

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/colonyops/ordernotify/internal/core/kv"
	"github.com/colonyops/ordernotify/internal/platform"
	"github.com/colonyops/ordernotify/internal/platform/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyFetcher struct {
	key string
	err error
}

func (f keyFetcher) VAPIDKey(context.Context) (string, error) { return f.key, f.err }

func validKey(t *testing.T) string {
	t.Helper()
	k, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	return platform.EncodeKey(k.PublicKey().Bytes())
}

func TestAPICheck(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  keyFetcher
		statuses []Status
	}{
		{"unreachable", keyFetcher{err: errors.New("connection refused")}, []Status{StatusFail}},
		{"bad key", keyFetcher{key: "abc"}, []Status{StatusPass, StatusWarn}},
		{"ok", keyFetcher{key: validKey(t)}, []Status{StatusPass, StatusPass}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewAPICheck(tt.fetcher, "http://localhost/api").Run(context.Background())

			var got []Status
			for _, item := range result.Items {
				got = append(got, item.Status)
			}
			assert.Equal(t, tt.statuses, got)
		})
	}
}

func TestReachabilityCheck(t *testing.T) {
	ok := NewReachabilityCheck("Broker", "amqp://localhost", func(context.Context) error { return nil })
	assert.Equal(t, StatusPass, ok.Run(context.Background()).Items[0].Status)

	down := func(context.Context) error { return errors.New("dial tcp: refused") }
	assert.Equal(t, StatusFail, NewReachabilityCheck("Broker", "x", down).Run(context.Background()).Items[0].Status)
	assert.Equal(t, StatusWarn, NewReachabilityCheck("Relay", "x", down).Optional().Run(context.Background()).Items[0].Status)
}

func TestPlatformCheck(t *testing.T) {
	ctx := context.Background()
	p, err := local.New(kv.NewMemory(), local.Options{EndpointBase: "amqp://localhost:5672", QueuePrefix: "q."})
	require.NoError(t, err)

	result := NewPlatformCheck(p).Run(ctx)
	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusWarn, result.Items[1].Status)
	assert.Equal(t, "ordernotify push subscribe", result.Items[1].Hint)

	reg, err := p.Register(ctx)
	require.NoError(t, err)
	_, err = reg.PushManager().Subscribe(ctx, validKey(t))
	require.NoError(t, err)

	result = NewPlatformCheck(p).Run(ctx)
	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusPass, result.Items[1].Status)
	assert.Contains(t, result.Items[1].Detail, "amqp://localhost:5672/q.")
}

func TestRunAll_KeepsOrder(t *testing.T) {
	results := RunAll(context.Background(), []Check{
		NewReachabilityCheck("A", "a", func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			return nil
		}),
		NewReachabilityCheck("B", "b", func(context.Context) error { return errors.New("x") }).Optional(),
		NewReachabilityCheck("C", "c", func(context.Context) error { return errors.New("down") }),
	})

	require.Len(t, results, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{results[0].Name, results[1].Name, results[2].Name})

	tally := Summary(results)
	assert.Equal(t, Tally{Passed: 1, Warned: 1, Failed: 1}, tally)
	assert.False(t, tally.Healthy())
}

func TestTally_JSON(t *testing.T) {
	data, err := json.Marshal(Tally{Passed: 2, Warned: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"passed":2,"warned":1,"failed":0,"healthy":true}`, string(data))
}

func TestHints(t *testing.T) {
	results := []Result{
		{Name: "A", Items: []CheckItem{
			{Label: "a", Status: StatusWarn, Hint: "ordernotify push subscribe"},
			{Label: "b", Status: StatusPass, Hint: "ignored when passing"},
		}},
		{Name: "B", Items: []CheckItem{
			{Label: "c", Status: StatusFail, Hint: "ordernotify push subscribe"},
			{Label: "d", Status: StatusFail, Hint: "ordernotify init"},
		}},
	}

	assert.Equal(t, []string{"ordernotify push subscribe", "ordernotify init"}, Hints(results))
}
