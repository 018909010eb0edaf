package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/statecraft/internal/runtime"
	"github.com/aretw0/statecraft/pkg/adapters/memory"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one second per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func reviewSpec() domain.DefinitionSpec {
	return domain.DefinitionSpec{
		Name:        "Document Review",
		Description: "draft, review, done",
		States: []domain.State{
			{ID: "draft", Name: "Draft", IsInitial: true, Enabled: true},
			{ID: "review", Name: "In Review", Enabled: true},
			{ID: "done", Name: "Done", IsFinal: true, Enabled: true},
		},
		Actions: []domain.Action{
			{ID: "submit", Name: "Submit", Enabled: true, FromStates: []string{"draft"}, ToState: "review"},
			{ID: "approve", Name: "Approve", Enabled: true, FromStates: []string{"review"}, ToState: "done"},
			{ID: "reject", Name: "Reject", Enabled: true, FromStates: []string{"review"}, ToState: "draft"},
			{ID: "archive", Name: "Archive", Enabled: false, FromStates: []string{"draft"}, ToState: "done"},
		},
	}
}

func newEngine(t *testing.T, opts ...runtime.EngineOption) (*runtime.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	clock := &stepClock{now: epoch}
	base := []runtime.EngineOption{
		runtime.WithClock(clock.Now),
		runtime.WithIDGenerator(sequentialIDs("id")),
	}
	return runtime.NewEngine(store, append(base, opts...)...), store
}

func TestEngine_DocumentReviewScenario(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	def, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)

	inst, err := engine.CreateInstance(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", inst.CurrentStateID)
	assert.Equal(t, "Draft", inst.CurrentStateName)
	assert.False(t, inst.IsCompleted)
	assert.Empty(t, inst.History)
	assert.NotNil(t, inst.History)

	inst, err = engine.ExecuteAction(ctx, inst.ID, "submit")
	require.NoError(t, err)
	assert.Equal(t, "review", inst.CurrentStateID)
	assert.Equal(t, "In Review", inst.CurrentStateName)
	assert.False(t, inst.IsCompleted)
	assert.Len(t, inst.History, 1)

	inst, err = engine.ExecuteAction(ctx, inst.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, "done", inst.CurrentStateID)
	assert.True(t, inst.IsCompleted)
	assert.Len(t, inst.History, 2)

	_, err = engine.ExecuteAction(ctx, inst.ID, "approve")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reasons, "Cannot execute actions on a completed workflow instance")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEngine_CreateDefinition(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	def, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)
	assert.Equal(t, "id-1", def.ID)
	assert.Equal(t, "Document Review", def.Name)
	assert.Equal(t, epoch.Add(time.Second), def.CreatedAt)
	assert.Len(t, def.States, 3)
	assert.Len(t, def.Actions, 4)

	got, ok, err := engine.GetDefinition(ctx, def.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *def, *got)
}

func TestEngine_CreateDefinition_DetachesInput(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	spec := reviewSpec()
	def, err := engine.CreateDefinition(ctx, spec)
	require.NoError(t, err)

	spec.States[0].Name = "mutated"
	spec.Actions[0].FromStates[0] = "mutated"

	got, _, err := engine.GetDefinition(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.States[0].Name)
	assert.Equal(t, []string{"draft"}, got.Actions[0].FromStates)
}

func TestEngine_CreateDefinition_Invalid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*domain.DefinitionSpec)
		reasons []string
	}{
		{
			name: "two initial states",
			mutate: func(s *domain.DefinitionSpec) {
				s.States[1].IsInitial = true
			},
			reasons: []string{"Only one initial state is allowed"},
		},
		{
			name: "no initial state",
			mutate: func(s *domain.DefinitionSpec) {
				s.States[0].IsInitial = false
			},
			reasons: []string{"At least one initial state is required"},
		},
		{
			name: "bad references",
			mutate: func(s *domain.DefinitionSpec) {
				s.Actions[0].ToState = "ghost"
				s.Actions[1].FromStates = []string{"review", "limbo", "void"}
			},
			reasons: []string{
				"Target state 'ghost' for action 'submit' does not exist",
				"Source state 'limbo' for action 'approve' does not exist",
				"Source state 'void' for action 'approve' does not exist",
			},
		},
		{
			name: "empty",
			mutate: func(s *domain.DefinitionSpec) {
				*s = domain.DefinitionSpec{Name: "  "}
			},
			reasons: []string{
				"Workflow name is required",
				"At least one state is required",
				"At least one initial state is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store := newEngine(t)
			spec := reviewSpec()
			tt.mutate(&spec)

			def, err := engine.CreateDefinition(ctx, spec)
			assert.Nil(t, def)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reasons, verr.Reasons)
			assert.Contains(t, err.Error(), "Invalid workflow definition: ")

			stored, err := store.ListDefinitions(ctx)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}

func TestEngine_GetDefinition_Missing(t *testing.T) {
	engine, _ := newEngine(t)

	def, ok, err := engine.GetDefinition(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, def)
}

func TestEngine_ListDefinitions_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	empty, err := engine.ListDefinitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	var ids []string
	for i := 0; i < 3; i++ {
		spec := reviewSpec()
		spec.Name = fmt.Sprintf("flow %d", i)
		def, err := engine.CreateDefinition(ctx, spec)
		require.NoError(t, err)
		ids = append(ids, def.ID)
	}

	defs, err := engine.ListDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	for i, d := range defs {
		assert.Equal(t, ids[i], d.ID)
	}
}

func TestEngine_CreateInstance_MissingDefinition(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.CreateInstance(context.Background(), "ghost")

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.EntityDefinition, nf.Entity)
	assert.EqualError(t, err, "Workflow definition 'ghost' not found")
}

func TestEngine_CreateInstance_NoInitialState(t *testing.T) {
	ctx := context.Background()
	engine, store := newEngine(t)

	// Written straight to the store, skipping validation.
	require.NoError(t, store.SaveDefinition(ctx, &domain.Definition{
		ID:     "broken",
		Name:   "Broken",
		States: []domain.State{{ID: "a", Name: "A", Enabled: true}},
	}))

	_, err := engine.CreateInstance(ctx, "broken")

	var ise *domain.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "broken", ise.DefinitionID)
	assert.EqualError(t, err, "Workflow definition has no initial state")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestEngine_ExecuteAction_NotFound(t *testing.T) {
	ctx := context.Background()
	engine, store := newEngine(t)

	def, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)
	inst, err := engine.CreateInstance(ctx, def.ID)
	require.NoError(t, err)

	require.NoError(t, store.SaveInstance(ctx, domain.NewInstance("orphan", "vanished", "draft", epoch)))

	tests := []struct {
		name       string
		instanceID string
		actionID   string
		entity     domain.Entity
		message    string
	}{
		{"instance", "ghost", "submit", domain.EntityInstance, "Workflow instance 'ghost' not found"},
		{"definition", "orphan", "submit", domain.EntityDefinition, "Workflow definition 'vanished' not found"},
		{"action", inst.ID, "teleport", domain.EntityAction, "Action 'teleport' not found in workflow definition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ExecuteAction(ctx, tt.instanceID, tt.actionID)

			var nf *domain.NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, tt.entity, nf.Entity)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestEngine_ExecuteAction_RejectedDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	engine, store := newEngine(t)

	def, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)
	inst, err := engine.CreateInstance(ctx, def.ID)
	require.NoError(t, err)

	before, err := store.GetInstance(ctx, inst.ID)
	require.NoError(t, err)

	tests := []struct {
		action  string
		reasons []string
	}{
		{"approve", []string{"Action 'approve' cannot be executed from current state 'draft'"}},
		{"archive", []string{"Action 'archive' is disabled"}},
	}
	for _, tt := range tests {
		_, err := engine.ExecuteAction(ctx, inst.ID, tt.action)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, tt.reasons, verr.Reasons)
		assert.Equal(t, "Invalid action execution: "+tt.reasons[0], err.Error())
	}

	after, err := store.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEngine_ExecuteAction_HistoryOrder(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	def, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)
	inst, err := engine.CreateInstance(ctx, def.ID)
	require.NoError(t, err)

	steps := []struct{ action, from, to string }{
		{"submit", "draft", "review"},
		{"reject", "review", "draft"},
		{"submit", "draft", "review"},
		{"approve", "review", "done"},
	}
	for _, s := range steps {
		inst, err = engine.ExecuteAction(ctx, inst.ID, s.action)
		require.NoError(t, err)
	}

	require.Len(t, inst.History, len(steps))
	for i, s := range steps {
		h := inst.History[i]
		assert.Equal(t, s.action, h.ActionID)
		assert.Equal(t, s.from, h.FromStateID)
		assert.Equal(t, s.to, h.ToStateID)
		if i > 0 {
			assert.True(t, h.Timestamp.After(inst.History[i-1].Timestamp))
		}
	}
	assert.Equal(t, "Approve", inst.History[3].ActionName)
	assert.Equal(t, inst.History[3].Timestamp, inst.LastModifiedAt)
	assert.True(t, inst.LastModifiedAt.After(inst.CreatedAt))
	assert.True(t, inst.IsCompleted)
}

func TestEngine_GetInstance_UnknownStateName(t *testing.T) {
	ctx := context.Background()
	engine, store := newEngine(t)

	require.NoError(t, store.SaveInstance(ctx, domain.NewInstance("orphan", "vanished", "draft", epoch)))

	inst, ok, err := engine.GetInstance(ctx, "orphan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.UnknownStateName, inst.CurrentStateName)

	list, err := engine.ListInstances(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.UnknownStateName, list[0].CurrentStateName)

	_, ok, err = engine.GetInstance(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_ListInstancesByDefinition(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	a, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)
	b, err := engine.CreateDefinition(ctx, reviewSpec())
	require.NoError(t, err)

	i1, err := engine.CreateInstance(ctx, a.ID)
	require.NoError(t, err)
	_, err = engine.CreateInstance(ctx, b.ID)
	require.NoError(t, err)
	i3, err := engine.CreateInstance(ctx, a.ID)
	require.NoError(t, err)

	all, err := engine.ListInstances(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := engine.ListInstancesByDefinition(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, i1.ID, filtered[0].ID)
	assert.Equal(t, i3.ID, filtered[1].ID)

	none, err := engine.ListInstancesByDefinition(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEngine_ExecuteAction_ConcurrentSameInstance(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t)

	spec := domain.DefinitionSpec{
		Name: "Toggle",
		States: []domain.State{
			{ID: "off", Name: "Off", IsInitial: true, Enabled: true},
			{ID: "on", Name: "On", Enabled: true},
		},
		Actions: []domain.Action{
			{ID: "flip", Name: "Flip", Enabled: true, FromStates: []string{"off", "on"}, ToState: "on"},
		},
	}
	def, err := engine.CreateDefinition(ctx, spec)
	require.NoError(t, err)
	inst, err := engine.CreateInstance(ctx, def.ID)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ExecuteAction(ctx, inst.ID, "flip")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, ok, err := engine.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.History, n, "no update may be lost")
}
