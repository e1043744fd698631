package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewFlowState(sessionID, 10)
		state.Step = 3
		state.History = []int{0, 1, 2, 3}
		state.Answers.FullName = "Ana Souza"
		state.Answers.Phone = "(11) 98765-4321"

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")

		assert.Equal(t, state.Step, loaded.Step)
		assert.Equal(t, state.Total, loaded.Total)
		assert.Equal(t, state.Answers, loaded.Answers)
		assert.Equal(t, state.History, loaded.History)
	})

	t.Run("Load Is Isolated From Caller Mutations", func(t *testing.T) {
		state := domain.NewFlowState(sessionID, 10)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Step = 7
		state.Answers.Age = "99"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, loaded.Step)
		assert.Equal(t, "", loaded.Answers.Age)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewFlowState(sessionID, 10))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewFlowState(id1, 10))
		_ = store.Save(ctx, id2, domain.NewFlowState(id2, 10))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunRecordStoreContract verifies the hosted-table contract: inserts get an identity,
// listing is newest first and deletes remove exactly one record.
// The store must be empty when the suite starts.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()

	t.Run("Insert and List Newest First", func(t *testing.T) {
		first := domain.AnswerRecord{FullName: "Primeira", Phone: "(11) 91111-1111"}
		second := domain.AnswerRecord{FullName: "Segunda", Availability: "Alto"}

		require.NoError(t, store.Insert(ctx, first))
		// Creation timestamps must differ for the ordering check.
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, store.Insert(ctx, second))

		records, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "Segunda", records[0].FullName)
		assert.Equal(t, "Primeira", records[1].FullName)
		assert.Equal(t, "(11) 91111-1111", records[1].Phone)
		assert.Equal(t, "Alto", records[0].Availability)

		for _, r := range records {
			assert.NotEmpty(t, r.ID, "store must assign an ID")
			assert.False(t, r.CreatedAt.IsZero(), "store must assign a creation time")
		}
		assert.NotEqual(t, records[0].ID, records[1].ID)
		assert.True(t, records[0].CreatedAt.After(records[1].CreatedAt))
	})

	t.Run("Delete", func(t *testing.T) {
		records, err := store.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, records)

		target := records[0]
		require.NoError(t, store.Delete(ctx, target.ID))

		after, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(records)-1)
		for _, r := range after {
			assert.NotEqual(t, target.ID, r.ID)
		}
	})

	t.Run("Delete Non-Existent", func(t *testing.T) {
		err := store.Delete(ctx, "does-not-exist")
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrRecordNotFound)
		}
	})
}
