package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/statecraft/internal/tracing"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/validation"
)

// NoInitialStateReason is the InvalidStateError message for a stored definition
// that has no initial state.
const NoInitialStateReason = "Workflow definition has no initial state"

// CreateInstance starts a new instance of the definition at its initial state.
func (e *Engine) CreateInstance(ctx context.Context, definitionID string) (_ *domain.InstanceView, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "create_instance", tracing.AttrDefinitionID.String(definitionID))
	defer func() { tracing.End(span, err) }()

	def, err := e.lookupDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityDefinition, ID: definitionID}
	}

	// Definitions written around the validator can still lack one.
	initial, ok := def.InitialState()
	if !ok {
		e.logger.Error("definition has no initial state", "definition_id", def.ID)
		return nil, &domain.InvalidStateError{DefinitionID: def.ID, Reason: NoInitialStateReason}
	}

	inst := domain.NewInstance(e.newID(), def.ID, initial.ID, e.clock())
	span.SetAttributes(tracing.AttrInstanceID.String(inst.ID))

	if err := e.store.SaveInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to save instance %s: %w", inst.ID, err)
	}

	e.logger.Info("instance created", "instance_id", inst.ID, "definition_id", def.ID, "state", initial.ID)
	e.emitInstanceCreated(ctx, inst)

	view := domain.NewInstanceView(inst, def)
	return &view, nil
}

// ExecuteAction applies actionID to the instance.
//
// The read-validate-write sequence runs under the instance's lock, so concurrent
// executions against one instance are serialized. A rejected action returns a
// *domain.ValidationError and leaves the stored instance untouched.
func (e *Engine) ExecuteAction(ctx context.Context, instanceID, actionID string) (_ *domain.InstanceView, err error) {
	ctx, span := tracing.Start(ctx, e.tracer, "execute_action",
		tracing.AttrInstanceID.String(instanceID),
		tracing.AttrActionID.String(actionID),
	)
	defer func() { tracing.End(span, err) }()

	var view domain.InstanceView
	err = e.locks.WithLock(ctx, "instance:"+instanceID, func(ctx context.Context) error {
		var execErr error
		view, execErr = e.execute(ctx, instanceID, actionID)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (e *Engine) execute(ctx context.Context, instanceID, actionID string) (domain.InstanceView, error) {
	start := time.Now()

	inst, err := e.lookupInstance(ctx, instanceID)
	if err != nil {
		return domain.InstanceView{}, err
	}
	if inst == nil {
		return domain.InstanceView{}, &domain.NotFoundError{Entity: domain.EntityInstance, ID: instanceID}
	}

	def, err := e.lookupDefinition(ctx, inst.DefinitionID)
	if err != nil {
		return domain.InstanceView{}, err
	}
	if def == nil {
		e.logger.Warn("instance references a missing definition", "instance_id", inst.ID, "definition_id", inst.DefinitionID)
		return domain.InstanceView{}, &domain.NotFoundError{Entity: domain.EntityDefinition, ID: inst.DefinitionID}
	}

	action, ok := def.Action(actionID)
	if !ok {
		return domain.InstanceView{}, &domain.NotFoundError{Entity: domain.EntityAction, ID: actionID}
	}

	result := validation.ValidateExecution(inst, action, def)
	if !result.Valid {
		e.logger.Debug("action rejected",
			"instance_id", inst.ID, "action_id", action.ID, "from", inst.CurrentStateID, "reasons", result.Errors)
		e.emitActionRejected(ctx, inst, action, result.Errors, time.Since(start))
		return domain.InstanceView{}, result.Err(validation.ExecutionSummary)
	}

	// Validation guarantees the target exists.
	to, _ := def.State(action.ToState)
	now := e.clock()

	next := inst.Clone()
	next.History = append(next.History, domain.HistoryEntry{
		ActionID:    action.ID,
		ActionName:  action.Name,
		FromStateID: inst.CurrentStateID,
		ToStateID:   to.ID,
		Timestamp:   now,
	})
	next.CurrentStateID = to.ID
	next.LastModifiedAt = now
	next.IsCompleted = to.IsFinal

	if err := e.store.SaveInstance(ctx, next); err != nil {
		return domain.InstanceView{}, fmt.Errorf("failed to save instance %s: %w", next.ID, err)
	}

	e.logger.Info("action executed",
		"instance_id", next.ID, "action_id", action.ID, "from", inst.CurrentStateID, "to", to.ID, "completed", next.IsCompleted)
	e.emitActionExecuted(ctx, inst, next, action, time.Since(start))

	return domain.NewInstanceView(next, def), nil
}
