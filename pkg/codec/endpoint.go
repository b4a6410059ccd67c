package codec

import (
	"context"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
	"github.com/aretw0/composable/pkg/store"
)

// Endpoint pairs a store with the registry that decodes its actions.
type Endpoint[S, A any] struct {
	store    *store.Store[S, A]
	registry *Registry[A]
}

var _ ports.Endpoint = (*Endpoint[int, int])(nil)

// Bind exposes s to transports through r.
func Bind[S, A any](s *store.Store[S, A], r *Registry[A]) *Endpoint[S, A] {
	return &Endpoint[S, A]{store: s, registry: r}
}

// ID returns the id of the bound store.
func (e *Endpoint[S, A]) ID() string {
	return e.store.ID()
}

// Snapshot returns the current state of the store with its version.
func (e *Endpoint[S, A]) Snapshot() domain.Snapshot {
	return e.store.Snapshot()
}

// Watch streams a snapshot after every state change until ctx is done. Slow
// receivers only see the most recent snapshot.
func (e *Endpoint[S, A]) Watch(ctx context.Context) <-chan domain.Snapshot {
	return e.store.Watch(ctx)
}

// Dispatch decodes and sends req. When the store is idle the returned snapshot
// includes the reduction; when another goroutine is draining, the action is
// queued and the snapshot may predate it.
func (e *Endpoint[S, A]) Dispatch(ctx context.Context, req domain.ActionRequest) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	a, err := e.registry.Decode(req)
	if err != nil {
		return domain.Snapshot{}, err
	}
	e.store.Send(a)
	return e.store.Snapshot(), nil
}

// Actions describes every registered action type, sorted by name.
func (e *Endpoint[S, A]) Actions() []domain.ActionDescriptor {
	return e.registry.Describe()
}
