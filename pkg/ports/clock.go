package ports

import (
	"context"
	"time"
)

// Clock abstracts time for effects.
type Clock interface {
	// Now returns the current time of the clock.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, in which case it returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error

	// Timer delivers a tick every interval until ctx is done.
	// The returned channel is closed once the timer stopped.
	Timer(ctx context.Context, interval time.Duration) <-chan time.Time
}
