// Package reducer defines the Reducer protocol and the combinators that compose
// features: Combine, Scope, ForEach, IfLet and Optional.
//
// Reducers are pure and total. They receive the current state by value, return
// the next state and an effect.Effect describing deferred work, and never block
// or perform I/O themselves.
package reducer

import "github.com/aretw0/composable/pkg/effect"

// Reducer evolves state S in response to action A.
type Reducer[S, A any] interface {
	Reduce(state S, action A) (S, effect.Effect[A])
}

// Func adapts an ordinary function to the Reducer interface.
type Func[S, A any] func(state S, action A) (S, effect.Effect[A])

// Reduce calls f(state, action).
func (f Func[S, A]) Reduce(state S, action A) (S, effect.Effect[A]) {
	return f(state, action)
}

// Empty returns a reducer that changes nothing.
func Empty[S, A any]() Reducer[S, A] {
	return Func[S, A](func(state S, _ A) (S, effect.Effect[A]) {
		return state, effect.None[A]()
	})
}

// Combine runs reducers in order, each on the state produced by the previous
// one, and merges their effects.
func Combine[S, A any](reducers ...Reducer[S, A]) Reducer[S, A] {
	return Func[S, A](func(state S, action A) (S, effect.Effect[A]) {
		effects := make([]effect.Effect[A], 0, len(reducers))
		for _, r := range reducers {
			if r == nil {
				continue
			}
			var e effect.Effect[A]
			state, e = r.Reduce(state, action)
			effects = append(effects, e)
		}
		return state, effect.Merge(effects...)
	})
}
