package effect

import (
	"context"
	"time"

	"github.com/aretw0/composable/pkg/ports"
)

// Kind identifies the variant of an Effect.
type Kind uint8

const (
	KindNone Kind = iota
	KindSend
	KindRun
	KindCancel
	KindMerge
	KindConcatenate
	KindCancellable
	KindScoped
	KindCancelScope
	KindDismiss
)

var kindNames = [...]string{
	KindNone:        "none",
	KindSend:        "send",
	KindRun:         "run",
	KindCancel:      "cancel",
	KindMerge:       "merge",
	KindConcatenate: "concatenate",
	KindCancellable: "cancellable",
	KindScoped:      "scoped",
	KindCancelScope: "cancel_scope",
	KindDismiss:     "dismiss",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Sender feeds an action back into the store that runs the effect.
// Calls made after the owning execution was cancelled are dropped.
type Sender[A any] func(action A)

// Operation is the asynchronous body of a Run effect.
// It must return promptly once ctx is done.
type Operation[A any] func(ctx context.Context, send Sender[A]) error

// Effect describes deferred work that may feed actions back into a store.
// Effects are values: building one has no side effect, and the zero value is None.
type Effect[A any] struct {
	kind     Kind
	action   A
	op       Operation[A]
	catch    func(error) A
	id       any
	key      any
	children []Effect[A]
}

// None returns an effect that does nothing.
func None[A any]() Effect[A] {
	return Effect[A]{}
}

// Send returns an effect that dispatches action immediately after the current reduction.
func Send[A any](action A) Effect[A] {
	return Effect[A]{kind: KindSend, action: action}
}

// Run returns an effect that executes op on its own goroutine.
func Run[A any](op Operation[A]) Effect[A] {
	if op == nil {
		return None[A]()
	}
	return Effect[A]{kind: KindRun, op: op}
}

// FireAndForget runs work that never produces actions.
func FireAndForget[A any](work func(ctx context.Context) error) Effect[A] {
	return Run(func(ctx context.Context, _ Sender[A]) error {
		return work(ctx)
	})
}

// Stream runs open and forwards every received value, transformed, as an action.
// The effect completes when the channel is closed or the execution is cancelled.
func Stream[T, A any](open func(ctx context.Context) (<-chan T, error), transform func(T) A) Effect[A] {
	return Run(func(ctx context.Context, send Sender[A]) error {
		ch, err := open(ctx)
		if err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				send(transform(v))
			}
		}
	})
}

// Timer emits tick() every interval of clock until cancelled.
func Timer[A any](clock ports.Clock, interval time.Duration, tick func() A) Effect[A] {
	return Stream(func(ctx context.Context) (<-chan time.Time, error) {
		return clock.Timer(ctx, interval), nil
	}, func(time.Time) A { return tick() })
}

// Cancel returns an effect that cancels the in-flight effect registered under id.
// Cancelling an identity that is not registered is a no-op.
func Cancel[A any](id any) Effect[A] {
	return Effect[A]{kind: KindCancel, id: id}
}

// CancelScope cancels every execution started beneath the scope key.
func CancelScope[A any](key any) Effect[A] {
	return Effect[A]{kind: KindCancelScope, key: key}
}

// Scoped namespaces e under key: cancellation identities used inside e are
// resolved relative to the key, and CancelScope(key) cancels all of e.
func Scoped[A any](key any, e Effect[A]) Effect[A] {
	if e.kind == KindNone {
		return e
	}
	return Effect[A]{kind: KindScoped, key: key, children: []Effect[A]{e}}
}

// Dismiss asks the presentation that hosts the current feature to dismiss it.
func Dismiss[A any]() Effect[A] {
	return Effect[A]{kind: KindDismiss}
}

// Kind reports the variant of e.
func (e Effect[A]) Kind() Kind {
	return e.kind
}

// IsNone reports whether e does nothing.
func (e Effect[A]) IsNone() bool {
	return e.kind == KindNone
}

// Action returns the action carried by a Send effect.
func (e Effect[A]) Action() (A, bool) {
	return e.action, e.kind == KindSend
}

// ID returns the cancellation identity of Cancel and Cancellable effects.
func (e Effect[A]) ID() any {
	return e.id
}

// Children returns the direct sub-effects of composite effects.
func (e Effect[A]) Children() []Effect[A] {
	out := make([]Effect[A], len(e.children))
	copy(out, e.children)
	return out
}

// Cancellable tracks the whole of e under id. Starting it cancels any effect
// already registered under the same id, so at most one holder is live per id.
func (e Effect[A]) Cancellable(id any) Effect[A] {
	if e.kind == KindNone {
		return e
	}
	return Effect[A]{kind: KindCancellable, id: id, children: []Effect[A]{e}}
}

// Catch declares the action produced when a Run operation inside e fails.
// Operations that already declare a handler keep theirs.
func (e Effect[A]) Catch(handler func(error) A) Effect[A] {
	switch e.kind {
	case KindRun:
		if e.catch == nil {
			e.catch = handler
		}
		return e
	case KindMerge, KindConcatenate, KindCancellable, KindScoped:
		children := make([]Effect[A], len(e.children))
		for i, c := range e.children {
			children[i] = c.Catch(handler)
		}
		e.children = children
		return e
	default:
		return e
	}
}

// Merge runs e and others concurrently.
func (e Effect[A]) Merge(others ...Effect[A]) Effect[A] {
	return Merge(append([]Effect[A]{e}, others...)...)
}

// Concatenate runs e, then others, each after the previous one completed.
func (e Effect[A]) Concatenate(others ...Effect[A]) Effect[A] {
	return Concatenate(append([]Effect[A]{e}, others...)...)
}

// Debounce delays e by d and cancels a pending run when another one starts under id.
func (e Effect[A]) Debounce(id any, clock ports.Clock, d time.Duration) Effect[A] {
	if e.kind == KindNone {
		return e
	}
	wait := FireAndForget[A](func(ctx context.Context) error {
		return clock.Sleep(ctx, d)
	})
	return Concatenate(wait, e).Cancellable(id)
}
