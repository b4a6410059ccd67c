package reducer

import (
	"fmt"

	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/identified"
)

// IdentifiedAction addresses Action to the element with identity ID.
type IdentifiedAction[ID comparable, CA any] struct {
	ID     ID
	Action CA
}

// ElementScope is the effect scope key of one collection element. Every effect
// an element produces runs under it and is cancelled when the element is
// removed. Site tells apart ForEach compositions over the same element type.
type ElementScope struct {
	Collection string
	Site       uint64
	ID         any
}

func (k ElementScope) String() string {
	return fmt.Sprintf("%s@%d#%v", k.Collection, k.Site, k.ID)
}

// ForEach routes identified child actions to the matching element of the
// collection focused by lens, then runs parent. An action addressed to an
// identity that is not in the collection is a no-op for the collection.
// Elements removed during the reduction have their in-flight effects
// cancelled before any effect of parent starts. Like IfLet, each ForEach
// call is its own scope.
func ForEach[S, A any, ID comparable, CS identified.Identifiable[ID], CA any](
	parent Reducer[S, A],
	lens Lens[S, identified.Array[ID, CS]],
	path CasePath[A, IdentifiedAction[ID, CA]],
	child Reducer[CS, CA],
) Reducer[S, A] {
	collection := fmt.Sprintf("%T", *new(CS))
	site := sites.Add(1)
	scopeOf := func(id ID) ElementScope {
		return ElementScope{Collection: collection, Site: site, ID: id}
	}

	return Func[S, A](func(state S, action A) (S, effect.Effect[A]) {
		before := lens.Get(state)

		childEffect := effect.None[A]()
		if ia, ok := path.Extract(action); ok {
			if cs, present := before.Get(ia.ID); present {
				next, ce := child.Reduce(cs, ia.Action)
				state = lens.Set(state, before.Update(next))
				id := ia.ID
				childEffect = effect.Scoped(scopeOf(id), effect.Map(ce, func(ca CA) A {
					return path.Embed(IdentifiedAction[ID, CA]{ID: id, Action: ca})
				}))
			}
		}

		parentEffect := effect.None[A]()
		if parent != nil {
			state, parentEffect = parent.Reduce(state, action)
		}

		after := lens.Get(state)
		var cancels []effect.Effect[A]
		for _, id := range before.IDs() {
			if !after.Has(id) {
				cancels = append(cancels, effect.CancelScope[A](scopeOf(id)))
			}
		}
		if len(cancels) == 0 {
			return state, effect.Merge(childEffect, parentEffect)
		}
		return state, effect.Merge(childEffect, effect.Concatenate(effect.Merge(cancels...), parentEffect))
	})
}
