package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/workflow-engine/internal/application/port"
	"github.com/garyjia/workflow-engine/internal/domain/workflow"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testDefinition(t *testing.T, id string, createdAt time.Time) *workflow.Definition {
	t.Helper()
	def, err := workflow.NewDefinition(id, "Flow",
		[]workflow.State{
			{ID: "open", IsInitial: true, Enabled: true},
			{ID: "closed", IsFinal: true, Enabled: true},
		},
		[]workflow.Action{
			{ID: "close", Name: "Close", Enabled: true, FromStates: []string{"open"}, ToState: "closed"},
		},
		createdAt,
	)
	require.NoError(t, err)
	return def
}

func TestStore_Definitions(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Definitions()

	def := testDefinition(t, "def-1", t0)
	require.NoError(t, repo.Create(ctx, def))

	t.Run("duplicate id is rejected", func(t *testing.T) {
		assert.ErrorIs(t, repo.Create(ctx, def), port.ErrAlreadyExists)
	})

	t.Run("missing id returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("reads are isolated copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "def-1")
		require.NoError(t, err)
		got.Actions[0].FromStates[0] = "closed"
		got.Name = "changed"

		again, err := repo.GetByID(ctx, "def-1")
		require.NoError(t, err)
		assert.Equal(t, def, again)
	})

	t.Run("caller mutations after insert are not stored", func(t *testing.T) {
		def.States[0].Name = "mutated"
		got, err := repo.GetByID(ctx, "def-1")
		require.NoError(t, err)
		assert.Empty(t, got.States[0].Name)
	})
}

func TestStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	defs := store.Definitions()

	require.NoError(t, defs.Create(ctx, testDefinition(t, "c", t0.Add(time.Second))))
	require.NoError(t, defs.Create(ctx, testDefinition(t, "b", t0)))
	require.NoError(t, defs.Create(ctx, testDefinition(t, "a", t0)))

	list, err := defs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := NewStore().List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_RecordTransition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	def := testDefinition(t, "def-1", t0)

	inst, err := workflow.NewInstance("inst-1", def, t0)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, inst))
	assert.ErrorIs(t, store.Create(ctx, inst), port.ErrAlreadyExists)

	entry := workflow.HistoryEntry{
		ActionID:   "close",
		ActionName: "Close",
		FromState:  "open",
		ToState:    "closed",
		ExecutedAt: t0.Add(time.Minute),
	}

	updated, err := store.RecordTransition(ctx, "inst-1", entry)
	require.NoError(t, err)
	assert.Equal(t, "closed", updated.CurrentStateID)
	assert.Equal(t, []workflow.HistoryEntry{entry}, updated.History)
	assert.Equal(t, entry.ExecutedAt, updated.LastModifiedAt)
	assert.Equal(t, t0, updated.CreatedAt)

	t.Run("stale source state is rejected", func(t *testing.T) {
		_, err := store.RecordTransition(ctx, "inst-1", entry)
		assert.ErrorIs(t, err, port.ErrConcurrentModification)

		got, err := store.GetByID(ctx, "inst-1")
		require.NoError(t, err)
		assert.Len(t, got.History, 1)
	})

	t.Run("unknown instance", func(t *testing.T) {
		_, err := store.RecordTransition(ctx, "ghost", entry)
		assert.ErrorIs(t, err, workflow.ErrInstanceNotFound)
	})

	t.Run("returned instance is a copy", func(t *testing.T) {
		updated.History[0].ActionName = "changed"
		got, err := store.GetByID(ctx, "inst-1")
		require.NoError(t, err)
		assert.Equal(t, "Close", got.History[0].ActionName)
	})
}

func TestStore_ConcurrentTransitionsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	inst, err := workflow.NewInstance("inst-1", testDefinition(t, "def-1", t0), t0)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, inst))

	entry := workflow.HistoryEntry{ActionID: "close", FromState: "open", ToState: "closed", ExecutedAt: t0}

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.RecordTransition(ctx, "inst-1", entry); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}
