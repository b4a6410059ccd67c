package effect_test

import (
	"testing"

	"github.com/aretw0/composable/pkg/effect"
	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	assert.True(t, effect.None[int]().IsNone())
	assert.Equal(t, effect.KindNone, effect.Effect[int]{}.Kind(), "zero value is None")

	a, ok := effect.Send(7).Action()
	assert.True(t, ok)
	assert.Equal(t, 7, a)

	assert.Equal(t, effect.KindRun, effect.FireAndForget[int](nil).Kind())
	assert.True(t, effect.Run[int](nil).IsNone())

	c := effect.Cancel[int]("timer")
	assert.Equal(t, effect.KindCancel, c.Kind())
	assert.Equal(t, "timer", c.ID())

	assert.Equal(t, "cancel_scope", effect.CancelScope[int]("x").Kind().String())
	assert.Equal(t, "unknown", effect.Kind(200).String())
}

func TestMerge_FlattensAndSkipsNone(t *testing.T) {
	e := effect.Merge(
		effect.None[int](),
		effect.Send(1),
		effect.Merge(effect.Send(2), effect.Send(3)),
	)
	assert.Equal(t, effect.KindMerge, e.Kind())
	assert.Len(t, e.Children(), 3)

	assert.True(t, effect.Merge(effect.None[int](), effect.None[int]()).IsNone())
	assert.Equal(t, effect.KindSend, effect.Merge(effect.None[int](), effect.Send(1)).Kind())
}

func TestConcatenate_Flattens(t *testing.T) {
	e := effect.Send(1).Concatenate(effect.Concatenate(effect.Send(2), effect.Send(3)))
	assert.Equal(t, effect.KindConcatenate, e.Kind())
	assert.Len(t, e.Children(), 3)
}

func TestCancellable_NoneStaysNone(t *testing.T) {
	assert.True(t, effect.None[int]().Cancellable("id").IsNone())
	assert.True(t, effect.Scoped("k", effect.None[int]()).IsNone())
	assert.True(t, effect.None[int]().Debounce("id", nil, 0).IsNone())
}

func TestMap(t *testing.T) {
	e := effect.Map(effect.Merge(effect.Send(1), effect.Send(2)), func(i int) string {
		return string(rune('a' + i))
	})
	children := e.Children()
	first, _ := children[0].Action()
	second, _ := children[1].Action()
	assert.Equal(t, "b", first)
	assert.Equal(t, "c", second)
}

func TestLift_ResolvesDismiss(t *testing.T) {
	e := effect.Concatenate(effect.Send(1), effect.Dismiss[int]())
	lifted := effect.Lift(e, func(i int) string { return "child" }, func() (string, bool) {
		return "dismiss", true
	})

	children := lifted.Children()
	assert.Len(t, children, 2)
	a, ok := children[1].Action()
	assert.True(t, ok)
	assert.Equal(t, "dismiss", a)

	unresolved := effect.Map(effect.Dismiss[int](), func(int) string { return "" })
	assert.Equal(t, effect.KindDismiss, unresolved.Kind())
}
