package ports

import "github.com/google/uuid"

// RandomSource abstracts randomness for reducers and effects.
type RandomSource interface {
	Bool() bool
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// UUIDGenerator produces identity tokens.
type UUIDGenerator func() uuid.UUID
