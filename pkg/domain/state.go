package domain

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Snapshot is the transport envelope for a published state value.
type Snapshot struct {
	// StoreID identifies the root store that produced the state.
	StoreID string `json:"store_id"`

	// Version increases by one on every reduction of the root store.
	Version uint64 `json:"version"`

	// Action is the name of the action that produced this state.
	// Empty for the initial snapshot.
	Action string `json:"action,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// State is the state value itself, encoded by the transport.
	State any `json:"state"`
}

// ActionName returns a stable, human readable name for an action value.
// Named types render as "pkg.Type"; pointers are dereferenced.
func ActionName(action any) string {
	if action == nil {
		return "<nil>"
	}
	if n, ok := action.(interface{ ActionName() string }); ok {
		return n.ActionName()
	}
	t := reflect.TypeOf(action)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.String()
	if i := strings.Index(name, "["); i > 0 {
		// Generic wrappers: keep the outer name and the last type argument segment.
		return name[:i] + "[" + lastSegment(name[i+1:len(name)-1]) + "]"
	}
	if name == "" {
		return fmt.Sprintf("%T", action)
	}
	return name
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
