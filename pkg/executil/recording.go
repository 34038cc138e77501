package executil

import (
	"context"
	"io"
	"slices"
	"sync"
)

// Call is one command seen by a RecordingExecutor.
type Call struct {
	Cmd   string
	Args  []string
	Stdin []byte
}

// RecordingExecutor runs nothing. It records every call and answers from
// Stdout and Errors, keyed by command name. The zero value is ready to use.
type RecordingExecutor struct {
	Stdout map[string][]byte
	Errors map[string]error

	mu    sync.Mutex
	calls []Call
}

var _ Executor = (*RecordingExecutor)(nil)

func (e *RecordingExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	return e.answer(Call{Cmd: cmd, Args: args})
}

func (e *RecordingExecutor) RunStdin(_ context.Context, stdin io.Reader, cmd string, args ...string) ([]byte, error) {
	call := Call{Cmd: cmd, Args: args}
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		call.Stdin = data
	}
	return e.answer(call)
}

func (e *RecordingExecutor) answer(call Call) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	return e.Stdout[call.Cmd], e.Errors[call.Cmd]
}

// Recorded returns the calls so far, oldest first.
func (e *RecordingExecutor) Recorded() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}
