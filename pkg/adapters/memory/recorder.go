// Package memory keeps published snapshots in process, for tests and for
// single-binary deployments that want a replayable history.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
)

// Recorder implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	history map[string][]domain.Snapshot
	limit   int
}

var _ ports.SnapshotStore = (*Recorder)(nil)

// NewRecorder creates a recorder keeping up to limit snapshots per store.
// A limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{
		history: make(map[string][]domain.Snapshot),
		limit:   limit,
	}
}

// Publish appends the snapshot to the history of its store.
func (r *Recorder) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := append(r.history[snapshot.StoreID], snapshot)
	if r.limit > 0 && len(h) > r.limit {
		h = append([]domain.Snapshot(nil), h[len(h)-r.limit:]...)
	}
	r.history[snapshot.StoreID] = h
	return nil
}

// Latest returns the last snapshot published for storeID.
func (r *Recorder) Latest(ctx context.Context, storeID string) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h := r.history[storeID]
	if len(h) == 0 {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return h[len(h)-1], nil
}

// History returns a copy of the snapshots kept for storeID, oldest first.
func (r *Recorder) History(storeID string) []domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Snapshot(nil), r.history[storeID]...)
}

// Stores lists the ids of every store that published.
func (r *Recorder) Stores() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.history))
	for id := range r.history {
		ids = append(ids, id)
	}
	return ids
}
