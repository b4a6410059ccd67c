package ports

import (
	"context"

	"github.com/aretw0/composable/pkg/domain"
)

// SnapshotPublisher ships state snapshots to an external transport
// (e.g. a Redis channel observed by a remote renderer).
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot domain.Snapshot) error
}

// SnapshotStore is a SnapshotPublisher that also keeps the latest snapshot of
// every store, so late observers can catch up.
type SnapshotStore interface {
	SnapshotPublisher
	Latest(ctx context.Context, storeID string) (domain.Snapshot, error)
}
