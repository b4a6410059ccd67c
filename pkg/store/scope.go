package store

import (
	"context"
	"reflect"
	"sync"
)

// Scope derives a child store viewing the part of parent's state selected by
// toChild. Actions sent to the child are wrapped with embed and reduced by the
// parent's pipeline. Child observers are only called when the projected state
// changed. Close on a child store does nothing; the root owns the effects.
func Scope[S, A, CS, CA any](parent *Store[S, A], toChild func(S) CS, embed func(CA) A) *Store[CS, CA] {
	return &Store[CS, CA]{
		id:     parent.id,
		rt:     parent.rt,
		logger: parent.logger,
		read: func() (CS, uint64, string) {
			state, version, action := parent.read()
			return toChild(state), version, action
		},
		dispatch: func(origin context.Context, action CA, t *Task) {
			parent.dispatch(origin, embed(action), t)
		},
		subscribe: func(fn func(prev, next CS)) func() {
			return parent.subscribe(func(prev, next S) {
				p, n := toChild(prev), toChild(next)
				if !reflect.DeepEqual(p, n) {
					fn(p, n)
				}
			})
		},
		close: func() {},
	}
}

// IfLet watches an optional child state. then is called with a child store each
// time the state becomes present, and orElse (if non-nil) each time it becomes
// absent, including once immediately for the current state. The returned
// function stops watching.
//
// The child store keeps answering State with the last present value after
// the child was dismissed; its actions are ignored by the parent from then on.
func IfLet[S, A, CS, CA any](
	parent *Store[S, A],
	toChild func(S) *CS,
	embed func(CA) A,
	then func(child *Store[CS, CA]),
	orElse func(),
) func() {
	var (
		mu      sync.Mutex
		known   bool
		present bool
	)

	update := func(state S) {
		current := toChild(state)
		mu.Lock()
		was, wasKnown := present, known
		present, known = current != nil, true
		mu.Unlock()

		switch {
		case current != nil && !was:
			then(presentedStore(parent, toChild, embed, *current))
		case current == nil && (was || !wasKnown):
			if orElse != nil {
				orElse()
			}
		}
	}

	cancel := parent.Observe(func(_, next S) { update(next) })
	update(parent.State())
	return cancel
}

func presentedStore[S, A, CS, CA any](parent *Store[S, A], toChild func(S) *CS, embed func(CA) A, initial CS) *Store[CS, CA] {
	var (
		mu   sync.Mutex
		last = initial
	)
	return Scope(parent, func(s S) CS {
		mu.Lock()
		defer mu.Unlock()
		if c := toChild(s); c != nil {
			last = *c
		}
		return last
	}, embed)
}
