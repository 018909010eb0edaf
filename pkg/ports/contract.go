package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a Store implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405.000000000")
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	newDefinition := func(id string) *domain.Definition {
		return &domain.Definition{
			ID:          id,
			Name:        "Review " + id,
			Description: "contract fixture",
			States: []domain.State{
				{ID: "draft", Name: "Draft", IsInitial: true, Enabled: true},
				{ID: "done", Name: "Done", IsFinal: true, Enabled: true},
			},
			Actions: []domain.Action{
				{ID: "finish", Name: "Finish", Enabled: true, FromStates: []string{"draft"}, ToState: "done"},
			},
			CreatedAt: now,
		}
	}

	t.Run("Save and Get Definition", func(t *testing.T) {
		def := newDefinition(prefix + "-def")
		require.NoError(t, store.SaveDefinition(ctx, def))

		loaded, err := store.GetDefinition(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, def.Name, loaded.Name)
		assert.Equal(t, def.States, loaded.States)
		assert.Equal(t, def.Actions, loaded.Actions)
		assert.True(t, def.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.GetDefinition(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

		_, err = store.GetInstance(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
	})

	t.Run("Isolation", func(t *testing.T) {
		def := newDefinition(prefix + "-iso")
		require.NoError(t, store.SaveDefinition(ctx, def))

		def.States[0].Name = "mutated after save"
		loaded, err := store.GetDefinition(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, "Draft", loaded.States[0].Name)

		loaded.Actions[0].FromStates[0] = "mutated after load"
		again, err := store.GetDefinition(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, "draft", again.Actions[0].FromStates[0])
	})

	t.Run("List Definitions In Insertion Order", func(t *testing.T) {
		ids := []string{prefix + "-order-c", prefix + "-order-a", prefix + "-order-b"}
		for _, id := range ids {
			require.NoError(t, store.SaveDefinition(ctx, newDefinition(id)))
		}

		defs, err := store.ListDefinitions(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids, filterIDs(defs, ids, func(d *domain.Definition) string { return d.ID }))
	})

	t.Run("Save Instance Overwrites In Place", func(t *testing.T) {
		first := domain.NewInstance(prefix+"-inst-1", prefix+"-def", "draft", now)
		second := domain.NewInstance(prefix+"-inst-2", prefix+"-def", "draft", now)
		require.NoError(t, store.SaveInstance(ctx, first))
		require.NoError(t, store.SaveInstance(ctx, second))

		first.History = append(first.History, domain.HistoryEntry{
			ActionID: "finish", ActionName: "Finish", FromStateID: "draft", ToStateID: "done", Timestamp: now,
		})
		first.CurrentStateID = "done"
		first.IsCompleted = true
		require.NoError(t, store.SaveInstance(ctx, first))

		loaded, err := store.GetInstance(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "done", loaded.CurrentStateID)
		assert.True(t, loaded.IsCompleted)
		require.Len(t, loaded.History, 1)
		assert.Equal(t, "finish", loaded.History[0].ActionID)

		ids := []string{first.ID, second.ID}
		insts, err := store.ListInstances(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids, filterIDs(insts, ids, func(i *domain.Instance) string { return i.ID }),
			"overwrite must keep the original listing position")
	})
}

func filterIDs[T any](items []T, want []string, id func(T) string) []string {
	keep := make(map[string]bool, len(want))
	for _, w := range want {
		keep[w] = true
	}
	out := []string{}
	for _, item := range items {
		if keep[id(item)] {
			out = append(out, id(item))
		}
	}
	return out
}
