package reducer

// Lens focuses a parent state S on a child state C.
type Lens[S, C any] struct {
	Get func(S) C
	Set func(S, C) S
}

// CasePath relates a parent action A to the child actions C it embeds.
type CasePath[A, C any] struct {
	Embed   func(C) A
	Extract func(A) (C, bool)
}

// Compose chains two lenses: S -> C -> G.
func Compose[S, C, G any](outer Lens[S, C], inner Lens[C, G]) Lens[S, G] {
	return Lens[S, G]{
		Get: func(s S) G { return inner.Get(outer.Get(s)) },
		Set: func(s S, g G) S { return outer.Set(s, inner.Set(outer.Get(s), g)) },
	}
}

// Case builds a CasePath for an action wrapper type W whose only payload is the
// child action C, such as `type Counter struct{ Action counter.Action }`.
func Case[A, C any, W interface{ Unwrap() C }](wrap func(C) W) CasePath[A, C] {
	return CasePath[A, C]{
		Embed: func(c C) A { return any(wrap(c)).(A) },
		Extract: func(a A) (C, bool) {
			w, ok := any(a).(W)
			if !ok {
				var zero C
				return zero, false
			}
			return w.Unwrap(), true
		},
	}
}
