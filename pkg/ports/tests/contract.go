// Package tests holds reusable contract suites for the ports defined in
// pkg/ports. Adapter test packages import it; production code must not.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
)

// RunProgressStoreContract runs a suite of tests to verify that a
// ProgressStore implementation adheres to the defined interface contract.
func RunProgressStoreContract(t *testing.T, store ports.ProgressStore) {
	ctx := context.Background()
	wizardID := "contract-test-wizard-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(wizardID)
		state.StepIndex = 3
		state.Fields["name"] = "Asha Kulkarni"
		state.Fields["gender"] = "Female"

		err := store.Save(ctx, wizardID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, wizardID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.StepIndex, loaded.StepIndex)
		assert.Equal(t, "Asha Kulkarni", loaded.Fields["name"])
		assert.Equal(t, "Female", loaded.Fields["gender"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		// A store holds at most one snapshot per wizard ID.
		first := domain.NewState(wizardID)
		first.StepIndex = 1
		require.NoError(t, store.Save(ctx, wizardID, first))

		second := domain.NewState(wizardID)
		second.StepIndex = 2
		second.Fields["phone"] = "9876543210"
		require.NoError(t, store.Save(ctx, wizardID, second))

		loaded, err := store.Load(ctx, wizardID)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.StepIndex)
		assert.Equal(t, "9876543210", loaded.Fields["phone"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+wizardID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		err := store.Save(ctx, wizardID, domain.NewState(wizardID))
		require.NoError(t, err)

		err = store.Clear(ctx, wizardID)
		require.NoError(t, err, "Clear should not return error")

		_, err = store.Load(ctx, wizardID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Clear should return ErrSnapshotNotFound")
	})

	t.Run("Clear Is Idempotent", func(t *testing.T) {
		assert.NoError(t, store.Clear(ctx, "never-existed-"+wizardID))
	})

	t.Run("List", func(t *testing.T) {
		id1 := wizardID + "-1"
		id2 := wizardID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1))
		_ = store.Save(ctx, id2, domain.NewState(id2))

		defer func() {
			_ = store.Clear(ctx, id1)
			_ = store.Clear(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
