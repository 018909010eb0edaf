package validation

import "github.com/aretw0/statecraft/pkg/domain"

// ExecutionSummary prefixes the message of a rejected action execution.
const ExecutionSummary = "Invalid action execution"

// ValidateExecution checks whether action may be executed against inst.
// The action must be enabled, must list the instance's current state as a source,
// and the instance must not be completed.
func ValidateExecution(inst *domain.Instance, action *domain.Action, _ *domain.Definition) Result {
	var c collector

	c.check(action.Enabled, "Action '%s' is disabled", action.ID)
	c.check(action.AllowsFrom(inst.CurrentStateID),
		"Action '%s' cannot be executed from current state '%s'", action.ID, inst.CurrentStateID)
	c.check(!inst.IsCompleted, "Cannot execute actions on a completed workflow instance")

	return c.result()
}
