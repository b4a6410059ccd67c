package reducer

import (
	"fmt"
	"sync/atomic"

	"github.com/aretw0/composable/pkg/effect"
)

// PresentationAction is the parent-side envelope of a presented child feature:
// either an action for the child, or a request to dismiss it.
type PresentationAction[CA any] struct {
	action  CA
	dismiss bool
}

// Presented wraps a child action.
func Presented[CA any](action CA) PresentationAction[CA] {
	return PresentationAction[CA]{action: action}
}

// Dismiss requests that the presented child be torn down.
func Dismiss[CA any]() PresentationAction[CA] {
	return PresentationAction[CA]{dismiss: true}
}

// IsDismiss reports whether p is a dismissal request.
func (p PresentationAction[CA]) IsDismiss() bool {
	return p.dismiss
}

// Action returns the wrapped child action.
func (p PresentationAction[CA]) Action() (CA, bool) {
	return p.action, !p.dismiss
}

func (p PresentationAction[CA]) String() string {
	if p.dismiss {
		return "dismiss"
	}
	return fmt.Sprintf("presented(%v)", p.action)
}

// sites numbers IfLet and ForEach compositions. Two compositions over the same
// child type get distinct scopes.
var sites atomic.Uint64

// PresentationScope is the effect scope key of a presented child: the child
// type and the IfLet composition it is presented through.
type PresentationScope struct {
	Feature string
	Site    uint64
}

func (k PresentationScope) String() string {
	return fmt.Sprintf("%s@%d", k.Feature, k.Site)
}

// IfLet integrates an optional, presented child into parent.
//
//   - Presented(a) for a present child runs child first and writes the result back.
//     For an absent child it is dropped.
//   - Dismiss() reaches parent, then clears the child state.
//   - effect.Dismiss returned by child becomes a new Dismiss() action of the parent.
//   - Whenever the child goes from present to absent, by dismissal or by any parent
//     logic, every effect the child started is cancelled, and the effect parent
//     returned runs only after that cancellation.
//
// Effects of the child are scoped to this composition, so build the reducer
// once and reuse it rather than calling IfLet on every reduction.
func IfLet[S, A, CS, CA any](
	parent Reducer[S, A],
	lens Lens[S, *CS],
	path CasePath[A, PresentationAction[CA]],
	child Reducer[CS, CA],
) Reducer[S, A] {
	scope := PresentationScope{Feature: fmt.Sprintf("%T", *new(CS)), Site: sites.Add(1)}
	dismiss := func() (A, bool) {
		return path.Embed(Dismiss[CA]()), true
	}
	embed := func(ca CA) A {
		return path.Embed(Presented(ca))
	}

	return Func[S, A](func(state S, action A) (S, effect.Effect[A]) {
		wasPresent := lens.Get(state) != nil

		childEffect := effect.None[A]()
		pa, isPresentation := path.Extract(action)
		if isPresentation {
			if ca, ok := pa.Action(); ok {
				if current := lens.Get(state); current != nil {
					next, ce := child.Reduce(*current, ca)
					state = lens.Set(state, &next)
					childEffect = effect.Scoped(scope, effect.Lift(ce, embed, dismiss))
				}
			}
		}

		parentEffect := effect.None[A]()
		if parent != nil {
			state, parentEffect = parent.Reduce(state, action)
		}
		if isPresentation && pa.IsDismiss() {
			state = lens.Set(state, nil)
		}

		if wasPresent && lens.Get(state) == nil {
			return state, effect.Merge(childEffect, effect.Concatenate(effect.CancelScope[A](scope), parentEffect))
		}
		return state, effect.Merge(childEffect, parentEffect)
	})
}
