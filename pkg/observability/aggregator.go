package observability

import (
	"context"
	"sync"

	"github.com/aretw0/composable/pkg/domain"
)

// Watcher is anything that streams snapshots until ctx is done.
// *store.Store satisfies it.
type Watcher interface {
	Watch(ctx context.Context) <-chan domain.Snapshot
}

// Aggregator combines multiple watchers into a single stream.
type Aggregator struct {
	mu       sync.Mutex
	watchers []Watcher
}

// NewAggregator creates an empty aggregator.
func NewAggregator(watchers ...Watcher) *Aggregator {
	return &Aggregator{watchers: watchers}
}

// AddWatcher registers w. Streams opened before the call do not include it.
func (a *Aggregator) AddWatcher(w Watcher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchers = append(a.watchers, w)
}

// Watch fans in the snapshots of every watcher. The channel is closed once ctx
// is done and every source closed.
func (a *Aggregator) Watch(ctx context.Context) <-chan domain.Snapshot {
	a.mu.Lock()
	watchers := append([]Watcher(nil), a.watchers...)
	a.mu.Unlock()

	out := make(chan domain.Snapshot, len(watchers))
	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(src <-chan domain.Snapshot) {
			defer wg.Done()
			for snap := range src {
				select {
				case out <- snap:
				case <-ctx.Done():
				}
			}
		}(w.Watch(ctx))
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
