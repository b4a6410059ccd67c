package clock

import (
	"context"
	"time"
)

// Live implements ports.Clock with the wall clock.
type Live struct{}

// NewLive creates a wall clock.
func NewLive() Live {
	return Live{}
}

// Now returns the current wall time.
func (Live) Now() time.Time {
	return time.Now()
}

// Sleep pauses for d or until ctx is done.
func (Live) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Timer ticks every interval until ctx is done, then closes the channel.
// Ticks are dropped while the receiver is busy, like time.Ticker.
func (Live) Timer(ctx context.Context, interval time.Duration) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
