// Package executil runs external commands behind an interface so callers
// can be tested with a recording executor.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// stderrLimit bounds how much stderr is quoted in a failure.
const stderrLimit = 500

type Executor interface {
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
	RunStdin(ctx context.Context, stdin io.Reader, cmd string, args ...string) ([]byte, error)
}

// Sh runs script with "sh -c".
func Sh(ctx context.Context, e Executor, script string) ([]byte, error) {
	return e.Run(ctx, "sh", "-c", script)
}

// RealExecutor runs commands on the host.
type RealExecutor struct{}

var _ Executor = (*RealExecutor)(nil)

func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.RunStdin(ctx, nil, cmd, args...)
}

// RunStdin returns stdout. A failure quotes the start of stderr and wraps the
// underlying error, so *exec.ExitError is still reachable with errors.As.
func (e *RealExecutor) RunStdin(ctx context.Context, stdin io.Reader, cmd string, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	stderr := &headBuffer{limit: stderrLimit}

	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdin = stdin
	c.Stdout = &stdout
	c.Stderr = stderr

	err := c.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return stdout.Bytes(), fmt.Errorf("exec %s: %s: %w", cmd, msg, err)
	}
	return stdout.Bytes(), fmt.Errorf("exec %s: %w", cmd, err)
}

// headBuffer keeps the first limit bytes written and discards the rest while
// still reporting full writes, so the child never sees a short write.
type headBuffer struct {
	bytes.Buffer
	limit int
}

func (b *headBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room > 0 {
		b.Buffer.Write(p[:min(room, len(p))])
	}
	return len(p), nil
}
