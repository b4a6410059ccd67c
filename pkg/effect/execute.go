package effect

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/composable/pkg/domain"
)

// Sink receives the actions produced by an effect. ctx is the context of the
// producing execution; sinks use it to drop actions that became stale.
type Sink[A any] func(ctx context.Context, action A)

// FailureError wraps the error returned by a failed operation that declared no
// failure action.
type FailureError struct {
	ID    string
	Scope string
	Err   error
}

func (e *FailureError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("effect %s failed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("effect failed: %v", e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

type frame struct {
	ctx  context.Context
	path string
	id   any
}

// Execute interprets e against rt. Synchronous variants (send, cancel, scope
// cancellation) are applied before Execute returns; operations run on their own
// goroutines. done, if non-nil, is called exactly once when e reached a terminal
// state.
func Execute[A any](ctx context.Context, rt *Runtime, e Effect[A], sink Sink[A], done func()) {
	if done == nil {
		done = func() {}
	}
	if ctx == nil {
		ctx = rt.ctx
	}
	execute(rt, frame{ctx: ctx}, e, sink, done)
}

func execute[A any](rt *Runtime, f frame, e Effect[A], sink Sink[A], done func()) {
	switch e.kind {
	case KindNone:
		done()

	case KindSend:
		if f.ctx.Err() == nil {
			sink(f.ctx, e.action)
		} else {
			rt.Dropped(f.ctx, e.action, "cancelled")
		}
		done()

	case KindCancel:
		rt.cancelID(f.path, e.id)
		done()

	case KindCancelScope:
		rt.cancelScope(joinPath(f.path, e.key))
		done()

	case KindDismiss:
		rt.logger.Warn("dismiss requested outside of a presentation", "store_id", rt.storeID, "scope", f.path)
		done()

	case KindScoped:
		// The scope is itself tracked so CancelScope also stops the steps of
		// e that have not started yet.
		path := joinPath(f.path, e.key)
		ctx, x := rt.track(f.ctx, path, nil, false)
		if x == nil {
			done()
			return
		}
		execute(rt, frame{ctx: ctx, path: path, id: f.id}, e.children[0], sink, func() {
			rt.untrack(x)
			done()
		})

	case KindCancellable:
		ctx, x := rt.track(f.ctx, f.path, e.id, false)
		if x == nil {
			done()
			return
		}
		execute(rt, frame{ctx: ctx, path: f.path, id: e.id}, e.children[0], sink, func() {
			rt.untrack(x)
			done()
		})

	case KindMerge:
		remaining := atomic.Int32{}
		remaining.Store(int32(len(e.children)))
		for _, child := range e.children {
			execute(rt, f, child, sink, func() {
				if remaining.Add(-1) == 0 {
					done()
				}
			})
		}

	case KindConcatenate:
		concatenate(rt, f, e.children, sink, done)

	case KindRun:
		launch(rt, f, e, sink, done)

	default:
		done()
	}
}

func concatenate[A any](rt *Runtime, f frame, effects []Effect[A], sink Sink[A], done func()) {
	if len(effects) == 0 || f.ctx.Err() != nil {
		done()
		return
	}
	execute(rt, f, effects[0], sink, func() {
		concatenate(rt, f, effects[1:], sink, done)
	})
}

func launch[A any](rt *Runtime, f frame, e Effect[A], sink Sink[A], done func()) {
	ctx, x := rt.track(f.ctx, f.path, nil, true)
	if x == nil {
		done()
		return
	}

	if rt.hooks.OnEffectStart != nil {
		rt.hooks.OnEffectStart(ctx, rt.event(domain.EventEffectStart, x, f.id))
	}

	rt.begin()
	go func() {
		defer rt.end()
		defer done()
		defer rt.untrack(x)

		start := time.Now()
		send := func(a A) {
			if ctx.Err() != nil {
				rt.Dropped(ctx, a, "cancelled")
				return
			}
			sink(ctx, a)
		}
		err := safely(ctx, e.op, send)
		hookCtx := context.WithoutCancel(ctx)

		switch {
		case ctx.Err() != nil:
			ev := rt.event(domain.EventEffectCancel, x, f.id)
			ev.Duration = time.Since(start)
			if err != nil && !errors.Is(err, context.Canceled) {
				ev.Err = err
			}
			if rt.hooks.OnEffectCancel != nil {
				rt.hooks.OnEffectCancel(hookCtx, ev)
			}
		case err != nil && e.catch != nil:
			sink(ctx, e.catch(err))
			ev := rt.event(domain.EventEffectFinish, x, f.id)
			ev.Duration = time.Since(start)
			ev.Err = err
			if rt.hooks.OnEffectFinish != nil {
				rt.hooks.OnEffectFinish(hookCtx, ev)
			}
		case err != nil:
			ev := rt.event(domain.EventEffectFailure, x, f.id)
			ev.Duration = time.Since(start)
			ev.Err = &FailureError{ID: ev.ID, Scope: x.path, Err: err}
			rt.logger.Error("effect failed",
				"store_id", rt.storeID,
				"effect_id", ev.ID,
				"scope", x.path,
				"err", err,
			)
			if rt.hooks.OnEffectFailure != nil {
				rt.hooks.OnEffectFailure(hookCtx, ev)
			}
		default:
			ev := rt.event(domain.EventEffectFinish, x, f.id)
			ev.Duration = time.Since(start)
			if rt.hooks.OnEffectFinish != nil {
				rt.hooks.OnEffectFinish(hookCtx, ev)
			}
		}
	}()
}

func safely[A any](ctx context.Context, op Operation[A], send Sender[A]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrEffectPanic, r)
		}
	}()
	return op(ctx, send)
}
