package domain

import "errors"

// ErrEffectPanic is reported when an effect operation panics.
var ErrEffectPanic = errors.New("effect panicked")

// ErrStoreClosed is returned when an action is sent to a closed store.
var ErrStoreClosed = errors.New("store closed")

// ErrUnknownAction is returned by codecs when an action name is not registered.
var ErrUnknownAction = errors.New("unknown action")

// ErrTimeout is returned when waiting for a task or an action exceeds its deadline.
var ErrTimeout = errors.New("timed out")

// ErrSnapshotNotFound is returned when no snapshot was published for a store.
var ErrSnapshotNotFound = errors.New("snapshot not found")
