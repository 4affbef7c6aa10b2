package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-processing-backend/internal/models"
)

func TestQueueAddAndReEnqueueNoOp(t *testing.T) {
	q := NewQueueStore(nil, testLogger())

	inserted, err := q.Add(models.QueueItem{DealershipID: "Alpha Motors", Mode: models.ModeAutomated, AddedBy: "csv-import"})
	require.NoError(t, err)
	assert.True(t, inserted)

	// Re-adding the same dealership is a no-op, not a duplicate: size is
	// unchanged and the original fields are untouched.
	inserted, err = q.Add(models.QueueItem{DealershipID: "Alpha Motors", Mode: models.ModeManual, AddedBy: "ui"})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, q.Len())

	items := q.Items()
	require.Len(t, items, 1)
	assert.Equal(t, models.ModeAutomated, items[0].Mode)
	assert.Equal(t, "csv-import", items[0].AddedBy)
}

func TestQueueAddValidation(t *testing.T) {
	q := NewQueueStore(nil, testLogger())

	_, err := q.Add(models.QueueItem{DealershipID: "", Mode: models.ModeAutomated})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = q.Add(models.QueueItem{DealershipID: "X", Mode: "TURBO"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, q.Len())
}

func TestQueueRemove(t *testing.T) {
	q := NewQueueStore(nil, testLogger())
	mustAdd(t, q, "A", models.ModeAutomated)
	mustAdd(t, q, "B", models.ModeManual)

	q.Remove("A")
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "B", q.Items()[0].DealershipID)

	// Removing an unknown id is harmless.
	q.Remove("ghost")
	assert.Equal(t, 1, q.Len())
}

func TestQueueUpdate(t *testing.T) {
	q := NewQueueStore(nil, testLogger())
	mustAdd(t, q, "A", models.ModeAutomated)

	hybrid := models.ModeHybrid
	q.Update("A", QueuePatch{Mode: &hybrid})
	assert.Equal(t, models.ModeHybrid, q.Items()[0].Mode)

	// Updating a missing id fails silently.
	q.Update("ghost", QueuePatch{Mode: &hybrid})
	assert.Equal(t, 1, q.Len())
}

func TestQueueDrainAll(t *testing.T) {
	q := NewQueueStore(nil, testLogger())
	mustAdd(t, q, "A", models.ModeAutomated)
	mustAdd(t, q, "B", models.ModeManual)
	mustAdd(t, q, "C", models.ModeHybrid)

	snapshot := q.DrainAll()
	require.Len(t, snapshot, 3)
	// Insertion order is preserved.
	assert.Equal(t, "A", snapshot[0].DealershipID)
	assert.Equal(t, "C", snapshot[2].DealershipID)
	assert.Equal(t, 0, q.Len())

	// The drained dealerships can be enqueued again in a fresh session.
	inserted, err := q.Add(models.QueueItem{DealershipID: "A", Mode: models.ModeAutomated})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func mustAdd(t *testing.T, q *QueueStore, dealership string, mode models.OrderMode) {
	t.Helper()
	inserted, err := q.Add(models.QueueItem{DealershipID: dealership, Mode: mode})
	require.NoError(t, err)
	require.True(t, inserted)
}
