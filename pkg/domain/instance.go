package domain

import (
	"slices"
	"time"
)

// InstanceStatus is the coarse lifecycle phase of an instance.
type InstanceStatus string

const (
	StatusActive    InstanceStatus = "active"    // Accepts actions
	StatusCompleted InstanceStatus = "completed" // A final state was reached; terminal
)

// Instance is a single running execution of a Definition.
type Instance struct {
	ID             string         `json:"id"`
	DefinitionID   string         `json:"definitionId"`
	CurrentStateID string         `json:"currentStateId"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastModifiedAt time.Time      `json:"lastModifiedAt"`
	IsCompleted    bool           `json:"isCompleted"`
	History        []HistoryEntry `json:"history"`
}

// HistoryEntry records one accepted action. Entries are never modified once appended.
type HistoryEntry struct {
	ActionID    string    `json:"actionId"`
	ActionName  string    `json:"actionName"`
	FromStateID string    `json:"fromStateId"`
	ToStateID   string    `json:"toStateId"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewInstance creates an active instance positioned at startStateID with an empty history.
func NewInstance(id, definitionID, startStateID string, now time.Time) *Instance {
	return &Instance{
		ID:             id,
		DefinitionID:   definitionID,
		CurrentStateID: startStateID,
		CreatedAt:      now,
		LastModifiedAt: now,
		History:        []HistoryEntry{},
	}
}

// Status derives the lifecycle phase from IsCompleted.
func (i *Instance) Status() InstanceStatus {
	if i.IsCompleted {
		return StatusCompleted
	}
	return StatusActive
}

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	c := *i
	c.History = slices.Clone(i.History)
	if c.History == nil {
		c.History = []HistoryEntry{}
	}
	return &c
}
