package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/composable/pkg/ports"
)

// Mirror publishes every snapshot of w to p until ctx is done. Publish errors
// are logged and the stream continues with the next snapshot.
func Mirror(ctx context.Context, w Watcher, p ports.SnapshotPublisher, logger *slog.Logger) {
	for snap := range w.Watch(ctx) {
		if err := p.Publish(ctx, snap); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("snapshot publish failed", "store_id", snap.StoreID, "version", snap.Version, "err", err)
		}
	}
}
