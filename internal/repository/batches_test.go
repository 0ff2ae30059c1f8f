package repository

import (
	"database/sql"
	"testing"

	"footypool/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRepository_Lifecycle(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	batch := &models.Batch{
		Name:        "countries",
		Trigger:     models.TriggerManual,
		TriggeredBy: sql.NullString{String: "tester", Valid: true},
	}

	id, err := db.Batches.CreateBatch(ctx, batch)
	require.NoError(t, err, "Should create batch")
	assert.Greater(t, id, 0)
	assert.False(t, batch.StartedAt.IsZero(), "CreateBatch should backfill started_at")

	items := []*models.BatchItem{
		{BatchID: id, ItemKey: "1", Status: models.ItemSuccess},
		{BatchID: id, ItemKey: "2", Status: models.ItemFailed, ErrorMessage: sql.NullString{String: "missing name", Valid: true}},
		{BatchID: id, ItemKey: "3", Status: models.ItemSuccess},
	}
	for _, item := range items {
		require.NoError(t, db.Batches.AddItem(ctx, item), "Should add batch item")
	}

	err = db.Batches.FinishBatch(ctx, id, models.BatchSuccess, 2, 1, 3, map[string]any{"source": "test"})
	require.NoError(t, err, "Should finish batch")

	stored, err := db.Batches.GetBatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.BatchSuccess, stored.Status)
	assert.Equal(t, 2, stored.ItemsSuccess)
	assert.Equal(t, 1, stored.ItemsFailed)
	assert.Equal(t, 3, stored.ItemsTotal)
	assert.True(t, stored.FinishedAt.Valid, "Finished batch should have finished_at")

	storedItems, err := db.Batches.ListItems(ctx, id)
	require.NoError(t, err)
	require.Len(t, storedItems, 3)
	assert.Equal(t, "1", storedItems[0].ItemKey, "Items should come back in insertion order")
	assert.Equal(t, "missing name", storedItems[1].ErrorMessage.String)
}

func TestBatchRepository_FinishBatchOnlyOnce(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	id, err := db.Batches.CreateBatch(ctx, &models.Batch{Name: "teams", Trigger: models.TriggerAutomatic})
	require.NoError(t, err)

	require.NoError(t, db.Batches.FinishBatch(ctx, id, models.BatchSuccess, 5, 0, 5, nil))

	err = db.Batches.FinishBatch(ctx, id, models.BatchFailed, 0, 5, 5, nil)
	assert.Error(t, err, "A finished batch must not be finished again")
}

func TestBatchRepository_ListRecentBatches(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	for i := 0; i < 3; i++ {
		id, err := db.Batches.CreateBatch(ctx, &models.Batch{Name: "fixtures", Trigger: models.TriggerAutomatic})
		require.NoError(t, err)
		require.NoError(t, db.Batches.FinishBatch(ctx, id, models.BatchSuccess, 1, 0, 1, nil))
	}

	batches, err := db.Batches.ListRecentBatches(ctx, "fixtures", 2)
	require.NoError(t, err)
	assert.Len(t, batches, 2, "Limit should apply")
	for _, b := range batches {
		assert.Equal(t, "fixtures", b.Name)
	}
}
