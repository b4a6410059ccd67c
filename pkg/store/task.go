package store

import (
	"context"
	"sync"

	"github.com/aretw0/composable/pkg/effect"
)

// Task tracks the effects started on behalf of one sent action.
type Task struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	once   sync.Once
}

func newTask(parent context.Context) *Task {
	ctx, cancel := context.WithCancelCause(parent)
	return &Task{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

func (t *Task) finish() {
	t.once.Do(func() {
		t.cancel(effect.ErrCompleted)
		close(t.done)
	})
}

// Done is closed once every effect of the action reached a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the effects of the action finished.
func (t *Task) Wait() {
	<-t.done
}

// WaitContext is Wait bounded by ctx.
func (t *Task) WaitContext(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cancellation of every effect the action started.
func (t *Task) Cancel() {
	t.cancel(nil)
}

// IsCancelled reports whether Cancel was called before the effects finished.
func (t *Task) IsCancelled() bool {
	return effect.Stale(t.ctx)
}
