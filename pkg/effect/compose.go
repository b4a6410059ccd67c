package effect

import "context"

// Merge runs effects concurrently. None effects are skipped and nested merges
// are flattened.
func Merge[A any](effects ...Effect[A]) Effect[A] {
	var children []Effect[A]
	for _, e := range effects {
		switch e.kind {
		case KindNone:
		case KindMerge:
			children = append(children, e.children...)
		default:
			children = append(children, e)
		}
	}
	return collapse(KindMerge, children)
}

// Concatenate runs effects one after another. Each effect starts only after the
// previous one reached a terminal state (completed, failed or cancelled).
func Concatenate[A any](effects ...Effect[A]) Effect[A] {
	var children []Effect[A]
	for _, e := range effects {
		switch e.kind {
		case KindNone:
		case KindConcatenate:
			children = append(children, e.children...)
		default:
			children = append(children, e)
		}
	}
	return collapse(KindConcatenate, children)
}

func collapse[A any](kind Kind, children []Effect[A]) Effect[A] {
	switch len(children) {
	case 0:
		return None[A]()
	case 1:
		return children[0]
	default:
		return Effect[A]{kind: kind, children: children}
	}
}

// Map transforms every action e can produce with f.
func Map[A, B any](e Effect[A], f func(A) B) Effect[B] {
	return Lift(e, f, nil)
}

// Lift is Map with a resolver for Dismiss requests: when onDismiss reports true,
// the request becomes a Send of the returned action.
func Lift[A, B any](e Effect[A], f func(A) B, onDismiss func() (B, bool)) Effect[B] {
	out := Effect[B]{kind: e.kind, id: e.id, key: e.key}
	switch e.kind {
	case KindNone, KindCancel, KindCancelScope:
	case KindSend:
		out.action = f(e.action)
	case KindDismiss:
		if onDismiss != nil {
			if b, ok := onDismiss(); ok {
				return Send(b)
			}
		}
	case KindRun:
		op := e.op
		out.op = func(ctx context.Context, send Sender[B]) error {
			return op(ctx, func(a A) { send(f(a)) })
		}
		if e.catch != nil {
			catch := e.catch
			out.catch = func(err error) B { return f(catch(err)) }
		}
	default:
		out.children = make([]Effect[B], len(e.children))
		for i, c := range e.children {
			out.children[i] = Lift(c, f, onDismiss)
		}
	}
	return out
}
