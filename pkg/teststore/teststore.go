// Package teststore provides an exhaustive test harness for reducers.
//
// A TestStore runs real effects, but instead of feeding their actions straight
// back into the reducer it holds them until the test claims them with Receive.
// Every Send and Receive states how the state is expected to change; Finish
// fails the test if actions were left unclaimed or effects are still running.
package teststore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/reducer"
	"github.com/stretchr/testify/assert"
)

// DefaultTimeout bounds Receive and Finish.
const DefaultTimeout = time.Second

type received[A any] struct {
	ctx    context.Context
	action A
}

// TestStore drives a reducer step by step.
type TestStore[S, A any] struct {
	t       testing.TB
	reducer reducer.Reducer[S, A]
	rt      *effect.Runtime

	// Timeout bounds waits for received actions and in-flight effects.
	Timeout time.Duration

	// Exhaustive requires every received action to be asserted and every effect
	// to finish before Finish. Defaults to true.
	Exhaustive bool

	mu       sync.Mutex
	state    S
	inbox    []received[A]
	arrived  chan struct{}
	inflight int
	idle     chan struct{}
}

// New creates a TestStore. The underlying effect runtime is closed at test cleanup.
func New[S, A any](t testing.TB, initial S, r reducer.Reducer[S, A]) *TestStore[S, A] {
	ts := &TestStore[S, A]{
		t:          t,
		reducer:    r,
		rt:         effect.NewRuntime(context.Background()),
		Timeout:    DefaultTimeout,
		Exhaustive: true,
		state:      initial,
		arrived:    make(chan struct{}, 1),
		idle:       make(chan struct{}),
	}
	close(ts.idle)
	t.Cleanup(ts.rt.Close)
	return ts
}

// State returns the current state.
func (ts *TestStore[S, A]) State() S {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.state
}

// Send reduces action. update mutates a copy of the previous state into the
// expected one; pass nil when the state must not change.
func (ts *TestStore[S, A]) Send(action A, update func(*S)) bool {
	ts.t.Helper()
	if ts.Exhaustive && ts.pending() > 0 {
		ts.t.Errorf("must handle %d received action(s) before sending %s", ts.pending(), domain.ActionName(action))
		return false
	}
	return ts.step("Send", action, update)
}

// Receive waits for the next action produced by an effect, asserts it equals
// expected and reduces it.
func (ts *TestStore[S, A]) Receive(expected A, update func(*S)) bool {
	ts.t.Helper()
	return ts.receive(expected, func(a A) bool {
		return assert.ObjectsAreEqual(expected, a)
	}, update)
}

// ReceiveMatch is Receive for actions that cannot be compared by value.
// When the store is not exhaustive, non matching actions are skipped.
func (ts *TestStore[S, A]) ReceiveMatch(description string, match func(A) bool, update func(*S)) bool {
	ts.t.Helper()
	return ts.receive(description, match, update)
}

func (ts *TestStore[S, A]) receive(want any, match func(A) bool, update func(*S)) bool {
	ts.t.Helper()
	description := fmt.Sprint(want)
	if _, ok := want.(string); !ok {
		description = domain.ActionName(want)
	}
	deadline := time.Now().Add(ts.Timeout)
	for {
		a, ok := ts.next(deadline)
		if !ok {
			ts.t.Errorf("expected to receive %s, but no action arrived within %s", description, ts.Timeout)
			return false
		}
		if match(a) {
			return ts.step("Receive", a, update)
		}
		if ts.Exhaustive {
			ts.t.Errorf("expected to receive %s, got %s:\n%s", description, domain.ActionName(a), reducer.Diff(want, a))
			return false
		}
		// Non-exhaustive: reduce and move on.
		ts.apply(a)
	}
}

// SkipReceivedActions reduces every action already received without asserting them.
func (ts *TestStore[S, A]) SkipReceivedActions() {
	for {
		a, ok := ts.next(time.Now())
		if !ok {
			return
		}
		ts.apply(a)
	}
}

// SkipInFlightEffects cancels every running effect.
func (ts *TestStore[S, A]) SkipInFlightEffects() {
	ts.rt.Close()
	ts.rt = effect.NewRuntime(context.Background())
	ts.t.Cleanup(ts.rt.Close)
}

// Finish asserts that no received action is left unhandled and every effect
// completed within Timeout.
func (ts *TestStore[S, A]) Finish() bool {
	ts.t.Helper()
	ok := true

	ts.mu.Lock()
	idle := ts.idle
	ts.mu.Unlock()
	select {
	case <-idle:
	case <-time.After(ts.Timeout):
		if ts.Exhaustive {
			ts.t.Errorf("%d effect(s) still running after %s", ts.rt.InFlight(), ts.Timeout)
			ok = false
		}
	}

	if n := ts.pending(); n > 0 && ts.Exhaustive {
		ts.t.Errorf("%d received action(s) were not handled", n)
		ok = false
	}
	return ok
}

func (ts *TestStore[S, A]) step(verb string, action A, update func(*S)) bool {
	ts.t.Helper()
	ts.mu.Lock()
	prev := ts.state
	ts.mu.Unlock()

	expected := prev
	if update != nil {
		update(&expected)
	}

	actual := ts.apply(action)
	if !assert.ObjectsAreEqual(expected, actual) {
		ts.t.Errorf("%s %s: state does not match expectation (expected → actual):\n%s",
			verb, domain.ActionName(action), reducer.Diff(expected, actual))
		return false
	}
	return true
}

func (ts *TestStore[S, A]) apply(action A) S {
	ts.mu.Lock()
	next, e := ts.reducer.Reduce(ts.state, action)
	ts.state = next
	ts.begin()
	ts.mu.Unlock()

	effect.Execute(ts.rt.Context(), ts.rt, e, func(ctx context.Context, a A) {
		ts.mu.Lock()
		ts.inbox = append(ts.inbox, received[A]{ctx: ctx, action: a})
		ts.mu.Unlock()
		select {
		case ts.arrived <- struct{}{}:
		default:
		}
	}, ts.end)
	return next
}

// begin and end count executions so Finish can wait for idleness. mu must be held by begin.
func (ts *TestStore[S, A]) begin() {
	if ts.inflight == 0 {
		ts.idle = make(chan struct{})
	}
	ts.inflight++
}

func (ts *TestStore[S, A]) end() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.inflight--
	if ts.inflight == 0 {
		close(ts.idle)
	}
}

func (ts *TestStore[S, A]) pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	n := 0
	for _, r := range ts.inbox {
		if !effect.Stale(r.ctx) {
			n++
		}
	}
	return n
}

// next pops the oldest non-stale received action, waiting until deadline.
func (ts *TestStore[S, A]) next(deadline time.Time) (A, bool) {
	for {
		ts.mu.Lock()
		for len(ts.inbox) > 0 {
			r := ts.inbox[0]
			ts.inbox = ts.inbox[1:]
			if !effect.Stale(r.ctx) {
				ts.mu.Unlock()
				return r.action, true
			}
		}
		ts.mu.Unlock()

		wait := time.Until(deadline)
		if wait <= 0 {
			var zero A
			return zero, false
		}
		select {
		case <-ts.arrived:
		case <-time.After(wait):
		}
	}
}
