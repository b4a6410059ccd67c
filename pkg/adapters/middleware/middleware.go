// Package middleware decorates snapshot publishers.
package middleware

import "github.com/aretw0/composable/pkg/ports"

// Middleware allows wrapping a SnapshotPublisher to add behavior.
type Middleware func(ports.SnapshotPublisher) ports.SnapshotPublisher

// Chain applies mws so that the first one sees snapshots first.
func Chain(next ports.SnapshotPublisher, mws ...Middleware) ports.SnapshotPublisher {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
