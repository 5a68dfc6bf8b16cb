package toolchain

import (
	"context"
	"sync"
)

// Recorder is a Runner that records invocations instead of executing them.
// Handle, when set, decides the outcome of every invocation.
type Recorder struct {
	Handle func(cmd Command) ([]byte, error)

	mu    sync.Mutex
	calls []Command
}

var _ Runner = (*Recorder)(nil)

func (r *Recorder) Run(ctx context.Context, cmd Command) error {
	_, err := r.Output(ctx, cmd)
	return err
}

func (r *Recorder) Output(ctx context.Context, cmd Command) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Handle == nil {
		return nil, nil
	}
	return r.Handle(cmd)
}

// Calls returns the recorded invocations in order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.calls...)
}
