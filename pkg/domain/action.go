package domain

import "slices"

// Action moves an instance from any of FromStates to ToState.
type Action struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	FromStates  []string `json:"fromStates" yaml:"from"`
	ToState     string   `json:"toState" yaml:"to"`
	Description string   `json:"description" yaml:"description,omitempty"`
}

// AllowsFrom reports whether stateID is one of the action's source states.
func (a *Action) AllowsFrom(stateID string) bool {
	return slices.Contains(a.FromStates, stateID)
}
