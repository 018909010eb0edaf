package domain

import "time"

// UnknownStateName is reported when an instance's state cannot be resolved
// because its definition (or the state within it) is missing.
const UnknownStateName = "Unknown"

// DefinitionView is the read model returned for a definition.
type DefinitionView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	States      []State   `json:"states"`
	Actions     []Action  `json:"actions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InstanceView is the read model returned for an instance.
type InstanceView struct {
	ID               string         `json:"id"`
	DefinitionID     string         `json:"definitionId"`
	CurrentStateID   string         `json:"currentStateId"`
	CurrentStateName string         `json:"currentStateName"`
	CreatedAt        time.Time      `json:"createdAt"`
	LastModifiedAt   time.Time      `json:"lastModifiedAt"`
	IsCompleted      bool           `json:"isCompleted"`
	History          []HistoryEntry `json:"history"`
}

// NewDefinitionView copies d into its read model.
func NewDefinitionView(d *Definition) DefinitionView {
	c := d.Clone()
	return DefinitionView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		States:      c.States,
		Actions:     c.Actions,
		CreatedAt:   c.CreatedAt,
	}
}

// NewInstanceView copies i into its read model. def may be nil, in which case
// the state name is reported as UnknownStateName.
func NewInstanceView(i *Instance, def *Definition) InstanceView {
	name := UnknownStateName
	if def != nil {
		if s, ok := def.State(i.CurrentStateID); ok {
			name = s.Name
		}
	}
	c := i.Clone()
	return InstanceView{
		ID:               c.ID,
		DefinitionID:     c.DefinitionID,
		CurrentStateID:   c.CurrentStateID,
		CurrentStateName: name,
		CreatedAt:        c.CreatedAt,
		LastModifiedAt:   c.LastModifiedAt,
		IsCompleted:      c.IsCompleted,
		History:          c.History,
	}
}
