package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/composable/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ClockContractTest is a reusable test suite that verifies if an adapter complies with ports.Clock.
// advance moves the clock forward; live clocks pass a no-op.
func ClockContractTest(t *testing.T, clock ports.Clock, advance func(time.Duration)) {
	t.Helper()

	const step = 10 * time.Millisecond

	// 1. Sleep elapses
	t.Run("Sleep_Elapses", func(t *testing.T) {
		done := make(chan error, 1)
		go func() {
			done <- clock.Sleep(context.Background(), step)
		}()

		var err error
		require.Eventually(t, func() bool {
			advance(step)
			select {
			case err = <-done:
				return true
			default:
				return false
			}
		}, time.Second, time.Millisecond)
		assert.NoError(t, err)
	})

	// 2. Sleep observes cancellation
	t.Run("Sleep_Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- clock.Sleep(ctx, time.Hour)
		}()
		cancel()

		select {
		case err := <-done:
			assert.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
		case <-time.After(time.Second):
			t.Fatal("Sleep did not return after cancellation")
		}
	})

	// 3. Timer ticks repeatedly and closes when stopped
	t.Run("Timer_Ticks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		ticks := clock.Timer(ctx, step)

		received := 0
		require.Eventually(t, func() bool {
			advance(step)
			select {
			case _, ok := <-ticks:
				if ok {
					received++
				}
			case <-time.After(time.Millisecond):
			}
			return received >= 3
		}, time.Second, time.Millisecond)

		cancel()
		require.Eventually(t, func() bool {
			for {
				select {
				case _, ok := <-ticks:
					if !ok {
						return true
					}
				default:
					return false
				}
			}
		}, time.Second, time.Millisecond, "timer channel should close after cancellation")
	})

	// 4. Now is monotonic
	t.Run("Now_Monotonic", func(t *testing.T) {
		before := clock.Now()
		advance(step)
		assert.False(t, clock.Now().Before(before))
	})
}
