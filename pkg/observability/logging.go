package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/statecraft/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write an audit record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDefinitionCreated: func(ctx context.Context, e *domain.DefinitionEvent) {
			logger.InfoContext(ctx, string(e.Type), "definition_id", e.DefinitionID, "name", e.Name)
		},
		OnInstanceCreated: func(ctx context.Context, e *domain.InstanceEvent) {
			logger.InfoContext(ctx, string(e.Type),
				"instance_id", e.InstanceID, "definition_id", e.DefinitionID, "state", e.StateID)
		},
		OnActionExecuted: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, string(e.Type),
				"instance_id", e.InstanceID,
				"action_id", e.ActionID,
				"from", e.FromStateID,
				"to", e.ToStateID,
				"completed", e.Completed,
				"duration", e.Duration,
			)
		},
		OnActionRejected: func(ctx context.Context, e *domain.ActionEvent) {
			logger.WarnContext(ctx, string(e.Type),
				"instance_id", e.InstanceID,
				"action_id", e.ActionID,
				"from", e.FromStateID,
				"reasons", e.Reasons,
			)
		},
	}
}
