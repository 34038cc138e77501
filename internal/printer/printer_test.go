package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCtx_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	ctx := WithPrinter(context.Background(), p)
	Ctx(ctx).Successf("subscribed %s", "amqp://x/q")

	assert.Contains(t, buf.String(), "subscribed amqp://x/q")
}

func TestCtx_DefaultsToStdout(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))
}

func TestItems(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Section("Tools")
	p.CheckItem("notify-send", "/usr/bin/notify-send")
	p.FailItem("paplay", "")

	out := buf.String()
	assert.Contains(t, out, "Tools")
	assert.Contains(t, out, "notify-send")
	assert.Contains(t, out, "/usr/bin/notify-send")
	assert.Contains(t, out, "paplay")
}
