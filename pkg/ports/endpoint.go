package ports

import (
	"context"

	"github.com/aretw0/composable/pkg/domain"
)

// Endpoint is a store as transports see it: untyped actions in, snapshots out.
type Endpoint interface {
	// ID identifies the root store.
	ID() string

	// Snapshot returns the current state.
	Snapshot() domain.Snapshot

	// Watch streams the current snapshot and then every change until ctx is done.
	Watch(ctx context.Context) <-chan domain.Snapshot

	// Dispatch decodes req, sends it and returns the snapshot right after its
	// reduction. Effects started by the action may still be running.
	Dispatch(ctx context.Context, req domain.ActionRequest) (domain.Snapshot, error)

	// Actions lists the actions Dispatch accepts.
	Actions() []domain.ActionDescriptor
}
