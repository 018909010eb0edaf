package domain

import (
	"slices"
	"time"
)

// DefinitionSpec is the caller-supplied content of a new workflow definition.
// The engine assigns the identity and creation time.
type DefinitionSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description,omitempty"`
	States      []State  `json:"states" yaml:"states"`
	Actions     []Action `json:"actions" yaml:"actions"`
}

// Definition is a named workflow template.
// Once saved it is never mutated.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	States      []State   `json:"states"`
	Actions     []Action  `json:"actions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InitialState returns the first state flagged as initial.
func (d *Definition) InitialState() (*State, bool) {
	for i := range d.States {
		if d.States[i].IsInitial {
			return &d.States[i], true
		}
	}
	return nil, false
}

// State looks up a state by ID.
func (d *Definition) State(id string) (*State, bool) {
	for i := range d.States {
		if d.States[i].ID == id {
			return &d.States[i], true
		}
	}
	return nil, false
}

// HasState reports whether id names a state of the definition.
func (d *Definition) HasState(id string) bool {
	_, ok := d.State(id)
	return ok
}

// Action looks up an action by ID.
func (d *Definition) Action(id string) (*Action, bool) {
	for i := range d.Actions {
		if d.Actions[i].ID == id {
			return &d.Actions[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy, so the copy shares no slices with d.
func (d *Definition) Clone() *Definition {
	c := *d
	c.States = slices.Clone(d.States)
	if d.Actions != nil {
		c.Actions = make([]Action, len(d.Actions))
		for i, a := range d.Actions {
			a.FromStates = slices.Clone(a.FromStates)
			c.Actions[i] = a
		}
	}
	return &c
}
