package validation

import (
	"strings"

	"github.com/aretw0/statecraft/pkg/domain"
)

// DefinitionSummary prefixes the message of a rejected definition.
const DefinitionSummary = "Invalid workflow definition"

// ValidateDefinition checks a workflow definition for structural consistency.
//
// Rules, in reporting order: the name is present, at least one state exists, exactly one
// state is initial, and every action has a name and a target state while referencing
// only states of the same definition.
func ValidateDefinition(def *domain.Definition) Result {
	var c collector

	c.check(strings.TrimSpace(def.Name) != "", "Workflow name is required")
	c.check(len(def.States) > 0, "At least one state is required")

	initial := 0
	for _, s := range def.States {
		if s.IsInitial {
			initial++
		}
	}
	switch {
	case initial == 0:
		c.addf("At least one initial state is required")
	case initial > 1:
		c.addf("Only one initial state is allowed")
	}

	for _, a := range def.Actions {
		c.check(strings.TrimSpace(a.Name) != "", "Action name is required for action %s", a.ID)
		c.check(strings.TrimSpace(a.ToState) != "", "Target state is required for action %s", a.ID)
		c.check(def.HasState(a.ToState), "Target state '%s' for action '%s' does not exist", a.ToState, a.ID)
		for _, from := range a.FromStates {
			c.check(def.HasState(from), "Source state '%s' for action '%s' does not exist", from, a.ID)
		}
	}

	return c.result()
}
