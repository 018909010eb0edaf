/*
Package statecraft is a finite-state workflow engine.

Callers register workflow definitions (named states plus the actions that move
between them) and then create and drive instances of those definitions. Every
accepted action is appended to the instance's history; reaching a final state
completes the instance for good.

# Concept

A definition is validated once, when it is created: it must have a name, at
least one state, exactly one initial state, and actions that only reference
states of the same definition. Executing an action is validated against the
instance: the action must be enabled, the instance must be in one of the
action's source states, and the instance must not be completed. Rejected
executions report every broken rule at once and change nothing.

The engine is transport-agnostic. The HTTP (pkg/adapters/http) and MCP
(pkg/adapters/mcp) adapters expose the same operations; persistence goes
through the ports.Store interface with memory, file and Redis implementations.

# Usage

	eng := statecraft.New()

	def, err := eng.CreateDefinition(ctx, domain.DefinitionSpec{
		Name: "Document Review",
		States: []domain.State{
			{ID: "draft", Name: "Draft", IsInitial: true, Enabled: true},
			{ID: "done", Name: "Done", IsFinal: true, Enabled: true},
		},
		Actions: []domain.Action{
			{ID: "approve", Name: "Approve", Enabled: true, FromStates: []string{"draft"}, ToState: "done"},
		},
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			log.Fatal(verr.Reasons)
		}
		log.Fatal(err)
	}

	inst, _ := eng.CreateInstance(ctx, def.ID)
	inst, err = eng.ExecuteAction(ctx, inst.ID, "approve")
	// inst.IsCompleted == true

# Errors

Operations return *domain.ValidationError, *domain.NotFoundError or
*domain.InvalidStateError, which also match domain.ErrValidation,
domain.ErrNotFound and domain.ErrInvalidState with errors.Is. Reads report a
missing entity through their ok result instead of an error.
*/
package statecraft
