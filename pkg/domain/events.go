package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDefinitionCreated EventType = "definition_created"
	EventInstanceCreated   EventType = "instance_created"
	EventActionExecuted    EventType = "action_executed"
	EventActionRejected    EventType = "action_rejected"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DefinitionEvent is emitted after a definition is stored.
type DefinitionEvent struct {
	EventBase
	DefinitionID string `json:"definition_id"`
	Name         string `json:"name"`
}

// InstanceEvent is emitted after an instance is created.
type InstanceEvent struct {
	EventBase
	InstanceID   string `json:"instance_id"`
	DefinitionID string `json:"definition_id"`
	StateID      string `json:"state_id"`
}

// ActionEvent is emitted when an action is accepted or rejected.
type ActionEvent struct {
	EventBase
	InstanceID   string        `json:"instance_id"`
	DefinitionID string        `json:"definition_id"`
	ActionID     string        `json:"action_id"`
	FromStateID  string        `json:"from_state_id"`
	ToStateID    string        `json:"to_state_id,omitempty"`
	Completed    bool          `json:"completed,omitempty"`
	Reasons      []string      `json:"reasons,omitempty"`
	Duration     time.Duration `json:"duration"`
	// Diff is set for accepted actions only.
	Diff         *InstanceDiff `json:"diff,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnDefinitionCreated func(context.Context, *DefinitionEvent)
	OnInstanceCreated   func(context.Context, *InstanceEvent)
	OnActionExecuted    func(context.Context, *ActionEvent)
	OnActionRejected    func(context.Context, *ActionEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnDefinitionCreated: chain(h.OnDefinitionCreated, other.OnDefinitionCreated),
		OnInstanceCreated:   chain(h.OnInstanceCreated, other.OnInstanceCreated),
		OnActionExecuted:    chain(h.OnActionExecuted, other.OnActionExecuted),
		OnActionRejected:    chain(h.OnActionRejected, other.OnActionRejected),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
