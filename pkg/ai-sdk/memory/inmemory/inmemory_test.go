package inmemory

import (
	"context"
	"fmt"
	"testing"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := New(10)

	run := memory.Run{
		ID:   "run-1",
		Task: "STARBUCKS PARIS",
		Transcript: []types.Turn{
			types.TaskTurn("STARBUCKS PARIS"),
			types.MessageTurn("FormattingAgent", `{"category": "FOOD"}`),
		},
		Metadata: map[string]any{"category": "FOOD"},
	}

	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Transcript, got.Transcript)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, memory.ErrRunNotFound)

	assert.ErrorIs(t, store.SaveRun(ctx, memory.Run{}), types.ErrInvalidMessage)
}

func TestStore_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := New(3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.SaveRun(ctx, memory.Run{ID: fmt.Sprintf("run-%d", i)}))
	}

	assert.Equal(t, 3, store.Len())

	_, err := store.GetRun(ctx, "run-2")
	assert.ErrorIs(t, err, memory.ErrRunNotFound)

	_, err = store.GetRun(ctx, "run-5")
	assert.NoError(t, err)
}

func TestStore_OverwriteKeepsPosition(t *testing.T) {
	ctx := context.Background()
	store := New(2)

	require.NoError(t, store.SaveRun(ctx, memory.Run{ID: "a", Task: "first"}))
	require.NoError(t, store.SaveRun(ctx, memory.Run{ID: "a", Task: "second"}))
	require.NoError(t, store.SaveRun(ctx, memory.Run{ID: "b"}))

	assert.Equal(t, 2, store.Len())

	got, err := store.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Task)
}
