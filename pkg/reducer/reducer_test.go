package reducer_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/identified"
	"github.com/aretw0/composable/pkg/reducer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- child feature ---

type counter struct {
	ID    string
	Count int
}

func (c counter) Identity() string { return c.ID }

type counterAction int

const (
	increment counterAction = iota
	decrement
	startTimer
	closeTapped
)

var counterReducer = reducer.Func[counter, counterAction](func(s counter, a counterAction) (counter, effect.Effect[counterAction]) {
	switch a {
	case increment:
		s.Count++
	case decrement:
		s.Count--
	case startTimer:
		return s, effect.Run(func(ctx context.Context, send effect.Sender[counterAction]) error {
			<-ctx.Done()
			return nil
		}).Cancellable("timer")
	case closeTapped:
		return s, effect.Dismiss[counterAction]()
	}
	return s, effect.None[counterAction]()
})

// --- parent feature ---

type parent struct {
	Single    counter
	Rows      identified.Array[string, counter]
	Sheet     *counter
	Observed  []int
	Dismissed int
}

type parentAction interface{ isParentAction() }

type single struct{ Action counterAction }
type row struct {
	reducer.IdentifiedAction[string, counterAction]
}
type sheet struct {
	reducer.PresentationAction[counterAction]
}
type removeRow struct{ ID string }
type hideSheet struct{}
type notify struct{}

func (single) isParentAction()    {}
func (row) isParentAction()       {}
func (sheet) isParentAction()     {}
func (removeRow) isParentAction() {}
func (hideSheet) isParentAction() {}
func (notify) isParentAction()    {}

func (s single) Unwrap() counterAction { return s.Action }

var (
	singleLens = reducer.Lens[parent, counter]{
		Get: func(p parent) counter { return p.Single },
		Set: func(p parent, c counter) parent { p.Single = c; return p },
	}
	rowsLens = reducer.Lens[parent, identified.Array[string, counter]]{
		Get: func(p parent) identified.Array[string, counter] { return p.Rows },
		Set: func(p parent, rows identified.Array[string, counter]) parent { p.Rows = rows; return p },
	}
	sheetLens = reducer.Lens[parent, *counter]{
		Get: func(p parent) *counter { return p.Sheet },
		Set: func(p parent, c *counter) parent { p.Sheet = c; return p },
	}

	singlePath = reducer.Case[parentAction, counterAction](func(a counterAction) single { return single{a} })
	rowPath    = reducer.CasePath[parentAction, reducer.IdentifiedAction[string, counterAction]]{
		Embed: func(a reducer.IdentifiedAction[string, counterAction]) parentAction { return row{a} },
		Extract: func(a parentAction) (reducer.IdentifiedAction[string, counterAction], bool) {
			r, ok := a.(row)
			return r.IdentifiedAction, ok
		},
	}
	sheetPath = reducer.CasePath[parentAction, reducer.PresentationAction[counterAction]]{
		Embed: func(a reducer.PresentationAction[counterAction]) parentAction { return sheet{a} },
		Extract: func(a parentAction) (reducer.PresentationAction[counterAction], bool) {
			s, ok := a.(sheet)
			return s.PresentationAction, ok
		},
	}
)

// parentCore records what it saw so tests can check ordering.
var parentCore = reducer.Func[parent, parentAction](func(p parent, a parentAction) (parent, effect.Effect[parentAction]) {
	switch a := a.(type) {
	case single:
		p.Observed = append(p.Observed, p.Single.Count)
	case removeRow:
		p.Rows = p.Rows.Remove(a.ID)
		return p, effect.Send[parentAction](notify{})
	case hideSheet:
		p.Sheet = nil
		return p, effect.Send[parentAction](notify{})
	case sheet:
		if a.IsDismiss() {
			p.Dismissed++
		}
	}
	return p, effect.None[parentAction]()
})

func TestFunc_IsDeterministic(t *testing.T) {
	s0 := counter{ID: "a"}
	s1, e1 := counterReducer.Reduce(s0, increment)
	s2, e2 := counterReducer.Reduce(s0, increment)

	assert.Equal(t, s1, s2)
	assert.Equal(t, 0, s0.Count, "input state is not mutated")
	assert.True(t, e1.IsNone())
	assert.True(t, e2.IsNone())
}

func TestEmpty(t *testing.T) {
	s, e := reducer.Empty[counter, counterAction]().Reduce(counter{Count: 3}, increment)
	assert.Equal(t, 3, s.Count)
	assert.True(t, e.IsNone())
}

func TestCombine_RunsInOrderAndMergesEffects(t *testing.T) {
	double := reducer.Func[int, string](func(s int, a string) (int, effect.Effect[string]) {
		return s * 2, effect.Send("doubled")
	})
	addOne := reducer.Func[int, string](func(s int, a string) (int, effect.Effect[string]) {
		return s + 1, effect.Send("added")
	})

	s, e := reducer.Combine[int, string](double, nil, addOne).Reduce(3, "go")
	assert.Equal(t, 7, s)
	require.Equal(t, effect.KindMerge, e.Kind())
	first, _ := e.Children()[0].Action()
	second, _ := e.Children()[1].Action()
	assert.Equal(t, []string{"doubled", "added"}, []string{first, second})
}

func TestScope_ChildRunsBeforeParent(t *testing.T) {
	r := reducer.Scope[parent, parentAction](parentCore, singleLens, singlePath, counterReducer)

	p, _ := r.Reduce(parent{}, single{increment})
	p, _ = r.Reduce(p, single{increment})

	assert.Equal(t, 2, p.Single.Count)
	assert.Equal(t, []int{1, 2}, p.Observed, "parent sees the child state already written back")
}

func TestScope_NonMatchingActionsOnlyReachParent(t *testing.T) {
	r := reducer.Scope[parent, parentAction](parentCore, singleLens, singlePath, counterReducer)

	p, e := r.Reduce(parent{Single: counter{Count: 5}}, hideSheet{})
	assert.Equal(t, 5, p.Single.Count)
	a, ok := e.Action()
	assert.True(t, ok)
	assert.Equal(t, notify{}, a)
}

func TestScope_MapsChildEffects(t *testing.T) {
	r := reducer.Scope[parent, parentAction](nil, singleLens, singlePath, counterReducer)

	_, e := r.Reduce(parent{}, single{startTimer})
	assert.Equal(t, effect.KindCancellable, e.Kind())
	assert.Equal(t, "timer", e.ID())
}

func newRows() identified.Array[string, counter] {
	return identified.New[string](counter{ID: "a"}, counter{ID: "b"})
}

func TestForEach_RoutesToOneElement(t *testing.T) {
	r := reducer.ForEach(parentCore, rowsLens, rowPath, reducer.Reducer[counter, counterAction](counterReducer))

	p, _ := r.Reduce(parent{Rows: newRows()}, row{reducer.IdentifiedAction[string, counterAction]{ID: "b", Action: increment}})

	a, _ := p.Rows.Get("a")
	b, _ := p.Rows.Get("b")
	assert.Equal(t, 0, a.Count)
	assert.Equal(t, 1, b.Count)
}

func TestForEach_AbsentIDIsNoop(t *testing.T) {
	r := reducer.ForEach(nil, rowsLens, rowPath, reducer.Reducer[counter, counterAction](counterReducer))
	before := parent{Rows: newRows()}

	after, e := r.Reduce(before, row{reducer.IdentifiedAction[string, counterAction]{ID: "zzz", Action: increment}})

	assert.Equal(t, before, after)
	assert.True(t, e.IsNone())
}

func TestForEach_ScopesElementEffects(t *testing.T) {
	r := reducer.ForEach(nil, rowsLens, rowPath, reducer.Reducer[counter, counterAction](counterReducer))

	_, e := r.Reduce(parent{Rows: newRows()}, row{reducer.IdentifiedAction[string, counterAction]{ID: "a", Action: startTimer}})

	require.Equal(t, effect.KindScoped, e.Kind())
	inner := e.Children()[0]
	assert.Equal(t, effect.KindCancellable, inner.Kind())
}

func TestForEach_RemovalCancelsElementScopeFirst(t *testing.T) {
	r := reducer.ForEach(parentCore, rowsLens, rowPath, reducer.Reducer[counter, counterAction](counterReducer))

	p, e := r.Reduce(parent{Rows: newRows()}, removeRow{ID: "a"})

	assert.Equal(t, []string{"b"}, p.Rows.IDs())
	require.Equal(t, effect.KindConcatenate, e.Kind())
	children := e.Children()
	require.Len(t, children, 2)
	assert.Equal(t, effect.KindCancelScope, children[0].Kind())
	a, ok := children[1].Action()
	assert.True(t, ok)
	assert.Equal(t, notify{}, a)
}

func ifLet() reducer.Reducer[parent, parentAction] {
	return reducer.IfLet(parentCore, sheetLens, sheetPath, reducer.Reducer[counter, counterAction](counterReducer))
}

func TestIfLet_RoutesToPresentedChild(t *testing.T) {
	p, _ := ifLet().Reduce(parent{Sheet: &counter{ID: "s"}}, sheet{reducer.Presented(increment)})
	require.NotNil(t, p.Sheet)
	assert.Equal(t, 1, p.Sheet.Count)
}

func TestIfLet_DropsActionsForAbsentChild(t *testing.T) {
	p, e := ifLet().Reduce(parent{}, sheet{reducer.Presented(increment)})
	assert.Nil(t, p.Sheet)
	assert.True(t, e.IsNone())
}

func TestIfLet_DismissClearsAndCancels(t *testing.T) {
	p, e := ifLet().Reduce(parent{Sheet: &counter{ID: "s"}}, sheet{reducer.Dismiss[counterAction]()})

	assert.Nil(t, p.Sheet)
	assert.Equal(t, 1, p.Dismissed, "parent observes the dismissal")
	assert.Equal(t, effect.KindCancelScope, e.Kind())
}

func TestIfLet_ExternalClearCancelsBeforeParentEffect(t *testing.T) {
	p, e := ifLet().Reduce(parent{Sheet: &counter{ID: "s"}}, hideSheet{})

	assert.Nil(t, p.Sheet)
	require.Equal(t, effect.KindConcatenate, e.Kind())
	children := e.Children()
	assert.Equal(t, effect.KindCancelScope, children[0].Kind())
	a, _ := children[1].Action()
	assert.Equal(t, notify{}, a)
}

func TestIfLet_ChildDismissBecomesParentAction(t *testing.T) {
	p, e := ifLet().Reduce(parent{Sheet: &counter{ID: "s"}}, sheet{reducer.Presented(closeTapped)})

	assert.NotNil(t, p.Sheet, "the child is only cleared when the dismiss action is reduced")
	require.Equal(t, effect.KindScoped, e.Kind())
	a, ok := e.Children()[0].Action()
	require.True(t, ok)
	got, isSheet := a.(sheet)
	require.True(t, isSheet)
	assert.True(t, got.IsDismiss())
}

func TestOptional(t *testing.T) {
	r := reducer.Optional(sheetLens, reducer.CasePath[parentAction, counterAction]{
		Embed: func(a counterAction) parentAction { return sheet{reducer.Presented(a)} },
		Extract: func(a parentAction) (counterAction, bool) {
			if s, ok := a.(sheet); ok {
				return s.Action()
			}
			return 0, false
		},
	}, reducer.Reducer[counter, counterAction](counterReducer))

	p, _ := r.Reduce(parent{Sheet: &counter{}}, sheet{reducer.Presented(decrement)})
	assert.Equal(t, -1, p.Sheet.Count)

	p, e := r.Reduce(parent{}, sheet{reducer.Presented(decrement)})
	assert.Nil(t, p.Sheet)
	assert.True(t, e.IsNone())
}

func TestCompose(t *testing.T) {
	count := reducer.Lens[counter, int]{
		Get: func(c counter) int { return c.Count },
		Set: func(c counter, n int) counter { c.Count = n; return c },
	}
	l := reducer.Compose(singleLens, count)

	p := l.Set(parent{}, 9)
	assert.Equal(t, 9, p.Single.Count)
	assert.Equal(t, 9, l.Get(p))
}

func TestPresentationAction(t *testing.T) {
	a, ok := reducer.Presented(increment).Action()
	assert.True(t, ok)
	assert.Equal(t, increment, a)
	assert.Equal(t, "dismiss", reducer.Dismiss[counterAction]().String())
	_, ok = reducer.Dismiss[counterAction]().Action()
	assert.False(t, ok)
}

func TestLogChanges(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := reducer.LogChanges[counter, counterAction](counterReducer, logger)

	s, _ := r.Reduce(counter{ID: "a"}, increment)
	assert.Equal(t, 1, s.Count)
	assert.Contains(t, buf.String(), "received action")
	assert.Contains(t, buf.String(), "Count: (int) 1")

	buf.Reset()
	r.Reduce(s, startTimer)
	assert.Contains(t, buf.String(), "state=unchanged")
}

func TestDiff(t *testing.T) {
	assert.Empty(t, reducer.Diff(counter{Count: 1}, counter{Count: 1}))
	d := reducer.Diff(counter{Count: 1}, counter{Count: 2})
	assert.Contains(t, d, "--- before")
	assert.Contains(t, d, "+++ after")
}

func TestForEach_CompositionsOfSameTypeAreIsolated(t *testing.T) {
	rt := effect.NewRuntime(context.Background())
	defer rt.Close()
	execute := func(e effect.Effect[parentAction]) {
		effect.Execute(context.Background(), rt, e, func(context.Context, parentAction) {}, nil)
	}
	first := reducer.ForEach(parentCore, rowsLens, rowPath, reducer.Reducer[counter, counterAction](counterReducer))
	second := reducer.ForEach(parentCore, rowsLens, rowPath, reducer.Reducer[counter, counterAction](counterReducer))
	start := row{reducer.IdentifiedAction[string, counterAction]{ID: "a", Action: startTimer}}

	_, e := first.Reduce(parent{Rows: newRows()}, start)
	execute(e)
	_, e = second.Reduce(parent{Rows: newRows()}, start)
	execute(e)
	assert.Equal(t, 2, rt.InFlight(), "same element id and cancel id under two compositions")

	_, e = first.Reduce(parent{Rows: newRows()}, removeRow{ID: "a"})
	execute(e)
	require.Eventually(t, func() bool { return rt.InFlight() == 1 }, time.Second, time.Millisecond)
}
