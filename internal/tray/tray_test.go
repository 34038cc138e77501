package tray

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/colonyops/ordernotify/pkg/executil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLog struct {
	saved []notify.Delivery
	err   error
}

func (m *memLog) Save(_ context.Context, d notify.Delivery) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, d)
	return int64(len(m.saved)), nil
}

func (m *memLog) List(context.Context, int) ([]notify.Delivery, error) { return m.saved, nil }
func (m *memLog) Clear(context.Context) error                          { m.saved = nil; return nil }
func (m *memLog) Count(context.Context) (int64, error)                 { return int64(len(m.saved)), nil }
func (m *memLog) PruneBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func orderOpts(body string) Options {
	return Options{
		Body:               body,
		Tag:                "order-12",
		Renotify:           true,
		RequireInteraction: true,
		Data:               Data{URL: "/admin", Type: "order"},
	}
}

func TestCenter_CollapsesByTag(t *testing.T) {
	ctx := context.Background()
	log := &memLog{}
	c := NewCenter(Config{Log: log})

	collapsed, err := c.Show(ctx, "first", orderOpts("a"))
	require.NoError(t, err)
	assert.False(t, collapsed)

	collapsed, err = c.Show(ctx, "second", orderOpts("b"))
	require.NoError(t, err)
	assert.True(t, collapsed)

	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "second", visible[0].Title)
	assert.Equal(t, 2, c.Alerts())

	require.Len(t, log.saved, 2)
	assert.False(t, log.saved[0].Collapsed)
	assert.True(t, log.saved[1].Collapsed)
	assert.Equal(t, "order", log.saved[1].Type)
}

func TestCenter_ReplacementWithoutRenotifyIsQuiet(t *testing.T) {
	ctx := context.Background()
	c := NewCenter(Config{})

	opts := orderOpts("a")
	opts.Renotify = false
	_, _ = c.Show(ctx, "t", opts)
	_, _ = c.Show(ctx, "t", opts)

	assert.Len(t, c.Visible(), 1)
	assert.Equal(t, 1, c.Alerts())
}

func TestCenter_UntaggedNeverCollapse(t *testing.T) {
	ctx := context.Background()
	c := NewCenter(Config{})

	_, _ = c.Show(ctx, "a", Options{})
	_, _ = c.Show(ctx, "b", Options{})

	assert.Len(t, c.Visible(), 2)
}

func TestCenter_SilentSkipsAlert(t *testing.T) {
	c := NewCenter(Config{})
	_, _ = c.Show(context.Background(), "a", Options{Tag: "x", Silent: true})
	assert.Equal(t, 0, c.Alerts())
}

func TestCenter_ExpiryRespectsRequireInteraction(t *testing.T) {
	ctx := context.Background()
	c := NewCenter(Config{Expiry: 10 * time.Millisecond})

	_, _ = c.Show(ctx, "sticky", orderOpts("a"))
	_, _ = c.Show(ctx, "fleeting", Options{Tag: "info-1"})

	require.Eventually(t, func() bool { return len(c.Visible()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "sticky", c.Visible()[0].Title)
}

func TestCenter_Close(t *testing.T) {
	ctx := context.Background()
	c := NewCenter(Config{})
	_, _ = c.Show(ctx, "a", orderOpts("a"))

	assert.True(t, c.Close(ctx, "order-12"))
	assert.False(t, c.Close(ctx, "order-12"))
	assert.Empty(t, c.Visible())
}

func TestCenter_ClickRunsHandler(t *testing.T) {
	ctx := context.Background()
	c := NewCenter(Config{})
	_, _ = c.Show(ctx, "a", orderOpts("a"))

	var got ClickEvent
	c.OnClick(func(_ context.Context, ev ClickEvent) error {
		got = ev
		return nil
	})

	require.NoError(t, c.Click(ctx, "order-12", "open"))
	assert.Equal(t, "open", got.Action)
	assert.Equal(t, "/admin", got.Notification.Data.URL)

	assert.ErrorIs(t, c.Click(ctx, "missing", ""), ErrNotFound)
}

func TestCenter_BackendFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	var outcomes []degrade.Outcome
	reporter := degrade.NewReporter(zerolog.Nop(), func(o degrade.Outcome) { outcomes = append(outcomes, o) })

	rec := &executil.RecordingExecutor{Errors: map[string]error{"sh": errors.New("no display")}}
	log := &memLog{err: errors.New("disk full")}
	c := NewCenter(Config{
		Backend:  &CommandBackend{Exec: rec, AppName: "ordernotify"},
		Log:      log,
		Reporter: reporter,
	})

	collapsed, err := c.Show(ctx, "a", orderOpts("a"))
	require.NoError(t, err)
	assert.False(t, collapsed)
	assert.Len(t, c.Visible(), 1)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "tray.backend", outcomes[0].Site)
	assert.Equal(t, degrade.BestEffort, outcomes[0].Policy)
	assert.Equal(t, "tray.log", outcomes[1].Site)
}

func TestCommandBackend_RendersNotifySend(t *testing.T) {
	rec := &executil.RecordingExecutor{}
	b := &CommandBackend{Exec: rec, AppName: "Szamma Mia"}

	n := Notification{Title: "Zamówienie #12", Options: orderOpts("Twoje zamówienie jest w drodze")}
	n.Actions = []Action{{Action: "open", Title: "Otwórz"}}
	require.NoError(t, b.Show(context.Background(), n))

	cmds := rec.Recorded()
	require.Len(t, cmds, 1)
	assert.Equal(t, "sh", cmds[0].Cmd)
	require.Len(t, cmds[0].Args, 2)

	script := cmds[0].Args[1]
	assert.True(t, strings.HasPrefix(script, "notify-send "))
	assert.Contains(t, script, "--app-name='Szamma Mia'")
	assert.Contains(t, script, "--urgency=critical")
	assert.Contains(t, script, "'string:x-canonical-private-synchronous:order-12'")
	assert.Contains(t, script, "--action='open=Otwórz'")
	assert.Contains(t, script, "'Twoje zamówienie jest w drodze'")
}

func TestCommandBackend_CloseWithoutCommandIsNoop(t *testing.T) {
	rec := &executil.RecordingExecutor{}
	b := &CommandBackend{Exec: rec}

	require.NoError(t, b.Close(context.Background(), "order-12"))
	assert.Empty(t, rec.Recorded())
}

func TestLogBackend_WritesNotification(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })
	log.Logger = zerolog.New(&buf)

	n := Notification{Title: "Zamówienie #12", Options: orderOpts("gotowe")}
	require.NoError(t, LogBackend{}.Show(context.Background(), n))
	require.NoError(t, LogBackend{}.Close(context.Background(), "order-12"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tray", entry["cmp"])
	assert.Equal(t, "order-12", entry["tag"])
	assert.Equal(t, "Zamówienie #12", entry["title"])
	assert.Equal(t, "gotowe", entry["body"])
}
