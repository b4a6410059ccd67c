package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAction        EventType = "action"
	EventActionDropped EventType = "action_dropped"
	EventStateChange   EventType = "state_change"
	EventEffectStart   EventType = "effect_start"
	EventEffectFinish  EventType = "effect_finish"
	EventEffectCancel  EventType = "effect_cancel"
	EventEffectFailure EventType = "effect_failure"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	StoreID   string    `json:"store_id"`
}

// ActionEvent is emitted when an action is reduced or dropped.
type ActionEvent struct {
	EventBase
	Action   any           `json:"action,omitempty"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration,omitempty"`
	Reason   string        `json:"reason,omitempty"` // Only set for dropped actions
}

// StateEvent is emitted after a reduction published a new snapshot.
type StateEvent struct {
	EventBase
	Version uint64 `json:"version"`
	Action  string `json:"action"`
}

// EffectEvent describes a single effect execution.
// Seq is unique per execution within a runtime and correlates start/finish pairs.
type EffectEvent struct {
	EventBase
	Seq      uint64        `json:"seq"`
	ID       string        `json:"id,omitempty"`    // Cancellation identity, if any
	Scope    string        `json:"scope,omitempty"` // Scope path of the execution
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
// Every field is optional.
type LifecycleHooks struct {
	OnAction        func(context.Context, *ActionEvent)
	OnActionDropped func(context.Context, *ActionEvent)
	OnStateChange   func(context.Context, *StateEvent)
	OnEffectStart   func(context.Context, *EffectEvent)
	OnEffectFinish  func(context.Context, *EffectEvent)
	OnEffectCancel  func(context.Context, *EffectEvent)
	OnEffectFailure func(context.Context, *EffectEvent)
}

// ComposeHooks fans every callback out to all the given hooks, in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		out.OnAction = chain(out.OnAction, h.OnAction)
		out.OnActionDropped = chain(out.OnActionDropped, h.OnActionDropped)
		out.OnStateChange = chain(out.OnStateChange, h.OnStateChange)
		out.OnEffectStart = chain(out.OnEffectStart, h.OnEffectStart)
		out.OnEffectFinish = chain(out.OnEffectFinish, h.OnEffectFinish)
		out.OnEffectCancel = chain(out.OnEffectCancel, h.OnEffectCancel)
		out.OnEffectFailure = chain(out.OnEffectFailure, h.OnEffectFailure)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
