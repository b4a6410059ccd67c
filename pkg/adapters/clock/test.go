package clock

import (
	"context"
	"sync"
	"time"
)

// Test is a manually driven ports.Clock for deterministic tests.
// Time only moves on Advance or Set.
type Test struct {
	mu      sync.Mutex
	now     time.Time
	waiters map[*waiter]struct{}
	changed chan struct{}
}

type waiter struct {
	deadline time.Time
	interval time.Duration // zero for sleepers

	mu      sync.Mutex
	pending []time.Time
	notify  chan struct{}
}

func (w *waiter) push(t time.Time) {
	w.mu.Lock()
	w.pending = append(w.pending, t)
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *waiter) pop() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return time.Time{}, false
	}
	t := w.pending[0]
	w.pending = w.pending[1:]
	return t, true
}

// NewTest creates a test clock starting at start. A zero start uses a fixed epoch.
func NewTest(start time.Time) *Test {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Test{
		now:     start,
		waiters: make(map[*waiter]struct{}),
		changed: make(chan struct{}),
	}
}

// Now returns the simulated time.
func (c *Test) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep blocks until the clock was advanced by d or ctx is done.
func (c *Test) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	w := c.register(d, 0)
	defer c.remove(w)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.notify:
		return nil
	}
}

// Timer delivers one tick per elapsed interval. Advance never blocks on a slow
// receiver: ticks are queued and delivered in order.
func (c *Test) Timer(ctx context.Context, interval time.Duration) <-chan time.Time {
	out := make(chan time.Time)
	w := c.register(interval, interval)
	go func() {
		defer close(out)
		defer c.remove(w)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.notify:
			}
			for {
				t, ok := w.pop()
				if !ok {
					break
				}
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

// Advance moves the clock forward by d and fires every due sleeper and timer.
func (c *Test) Advance(d time.Duration) {
	c.mu.Lock()
	c.setLocked(c.now.Add(d))
	c.mu.Unlock()
}

// Set moves the clock to t. Moving backwards fires nothing.
func (c *Test) Set(t time.Time) {
	c.mu.Lock()
	c.setLocked(t)
	c.mu.Unlock()
}

func (c *Test) setLocked(t time.Time) {
	if t.Before(c.now) {
		c.now = t
		return
	}
	c.now = t
	for w := range c.waiters {
		if w.interval == 0 {
			if !w.deadline.After(t) {
				w.push(w.deadline)
				delete(c.waiters, w)
			}
			continue
		}
		for !w.deadline.After(t) {
			w.push(w.deadline)
			w.deadline = w.deadline.Add(w.interval)
		}
	}
	c.signalLocked()
}

// Waiters returns the number of sleepers and timers currently registered.
func (c *Test) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// BlockUntil blocks until at least n sleepers or timers are registered, so a test
// can advance the clock only once the code under test is waiting on it.
func (c *Test) BlockUntil(n int) {
	_ = c.BlockUntilContext(context.Background(), n)
}

// BlockUntilContext is BlockUntil bounded by ctx.
func (c *Test) BlockUntilContext(ctx context.Context, n int) error {
	for {
		c.mu.Lock()
		if len(c.waiters) >= n {
			c.mu.Unlock()
			return nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (c *Test) register(d, interval time.Duration) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &waiter{
		deadline: c.now.Add(d),
		interval: interval,
		notify:   make(chan struct{}, 1),
	}
	c.waiters[w] = struct{}{}
	c.signalLocked()
	return w
}

func (c *Test) remove(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.waiters[w]; ok {
		delete(c.waiters, w)
		c.signalLocked()
	}
}

func (c *Test) signalLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
