package uuidgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Live returns a generator of random (v4) UUIDs.
func Live() func() uuid.UUID {
	return uuid.New
}

// Incrementing returns a generator of predictable UUIDs:
// 00000000-0000-0000-0000-000000000000, ...-000000000001, and so on.
func Incrementing() func() uuid.UUID {
	var n atomic.Uint64
	return func() uuid.UUID {
		return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012x", n.Add(1)-1))
	}
}

// Constant always returns id.
func Constant(id uuid.UUID) func() uuid.UUID {
	return func() uuid.UUID { return id }
}
