package reducer

import "github.com/aretw0/composable/pkg/effect"

// Scope embeds child into parent. Actions that path extracts are first reduced
// by child on the state focused by lens, the result is written back, and only
// then does parent run with the original action. Other actions reach parent
// alone. parent may be nil.
//
// A parent that wants to react to something the child did must do so through a
// separately dispatched action (typically a delegate action the child sends
// with effect.Send), never by inspecting child state in the same pass.
func Scope[S, A, CS, CA any](parent Reducer[S, A], lens Lens[S, CS], path CasePath[A, CA], child Reducer[CS, CA]) Reducer[S, A] {
	return Func[S, A](func(state S, action A) (S, effect.Effect[A]) {
		childEffect := effect.None[A]()
		if ca, ok := path.Extract(action); ok {
			cs, ce := child.Reduce(lens.Get(state), ca)
			state = lens.Set(state, cs)
			childEffect = effect.Map(ce, path.Embed)
		}
		if parent == nil {
			return state, childEffect
		}
		state, parentEffect := parent.Reduce(state, action)
		return state, effect.Merge(childEffect, parentEffect)
	})
}

// Optional runs child only while the state focused by lens is present. Child
// actions arriving for an absent child are ignored.
func Optional[S, A, CS, CA any](lens Lens[S, *CS], path CasePath[A, CA], child Reducer[CS, CA]) Reducer[S, A] {
	return Func[S, A](func(state S, action A) (S, effect.Effect[A]) {
		ca, ok := path.Extract(action)
		if !ok {
			return state, effect.None[A]()
		}
		current := lens.Get(state)
		if current == nil {
			return state, effect.None[A]()
		}
		next, ce := child.Reduce(*current, ca)
		return lens.Set(state, &next), effect.Map(ce, path.Embed)
	})
}
