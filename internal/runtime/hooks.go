package runtime

import (
	"context"
	"time"

	"github.com/aretw0/statecraft/pkg/domain"
)

func (e *Engine) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.clock(), Type: t}
}

func (e *Engine) emitDefinitionCreated(ctx context.Context, def *domain.Definition) {
	if e.hooks.OnDefinitionCreated == nil {
		return
	}
	e.hooks.OnDefinitionCreated(ctx, &domain.DefinitionEvent{
		EventBase:    e.event(domain.EventDefinitionCreated),
		DefinitionID: def.ID,
		Name:         def.Name,
	})
}

func (e *Engine) emitInstanceCreated(ctx context.Context, inst *domain.Instance) {
	if e.hooks.OnInstanceCreated == nil {
		return
	}
	e.hooks.OnInstanceCreated(ctx, &domain.InstanceEvent{
		EventBase:    e.event(domain.EventInstanceCreated),
		InstanceID:   inst.ID,
		DefinitionID: inst.DefinitionID,
		StateID:      inst.CurrentStateID,
	})
}

func (e *Engine) emitActionExecuted(ctx context.Context, prev, next *domain.Instance, action *domain.Action, d time.Duration) {
	if e.hooks.OnActionExecuted == nil {
		return
	}
	e.hooks.OnActionExecuted(ctx, &domain.ActionEvent{
		EventBase:    e.event(domain.EventActionExecuted),
		InstanceID:   next.ID,
		DefinitionID: next.DefinitionID,
		ActionID:     action.ID,
		FromStateID:  prev.CurrentStateID,
		ToStateID:    next.CurrentStateID,
		Completed:    next.IsCompleted,
		Duration:     d,
		Diff:         domain.Diff(prev, next),
	})
}

func (e *Engine) emitActionRejected(ctx context.Context, inst *domain.Instance, action *domain.Action, reasons []string, d time.Duration) {
	if e.hooks.OnActionRejected == nil {
		return
	}
	e.hooks.OnActionRejected(ctx, &domain.ActionEvent{
		EventBase:    e.event(domain.EventActionRejected),
		InstanceID:   inst.ID,
		DefinitionID: inst.DefinitionID,
		ActionID:     action.ID,
		FromStateID:  inst.CurrentStateID,
		Reasons:      reasons,
		Duration:     d,
	})
}
