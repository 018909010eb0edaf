package domain

// State is a node of a workflow definition.
type State struct {
	// ID is unique within its definition.
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	IsInitial   bool   `json:"isInitial" yaml:"initial"`
	IsFinal     bool   `json:"isFinal" yaml:"final"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description" yaml:"description,omitempty"`
}
