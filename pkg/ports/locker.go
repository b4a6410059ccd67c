package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker hands out exclusive leases across processes, e.g. so that only one
// replica mirrors a given store to a shared transport.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
