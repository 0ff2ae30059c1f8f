package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"footypool/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBatchStore records batch bookkeeping calls in memory.
type fakeBatchStore struct {
	nextID   int
	created  []*models.Batch
	items    []*models.BatchItem
	finished []finishCall
}

type finishCall struct {
	id      int
	status  string
	success int
	failed  int
	total   int
}

func (f *fakeBatchStore) CreateBatch(ctx context.Context, batch *models.Batch) (int, error) {
	f.nextID++
	f.created = append(f.created, batch)
	return f.nextID, nil
}

func (f *fakeBatchStore) AddItem(ctx context.Context, item *models.BatchItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeBatchStore) FinishBatch(ctx context.Context, id int, status string, success, failed, total int, meta map[string]any) error {
	f.finished = append(f.finished, finishCall{id: id, status: status, success: success, failed: failed, total: total})
	return nil
}

func TestRunContinuesPastItemFailure(t *testing.T) {
	store := &fakeBatchStore{}
	p := &Pipeline{batches: store}

	items := []item{
		{key: "1", apply: func(ctx context.Context) error { return nil }},
		{key: "2", apply: func(ctx context.Context) error { return nil }},
		{key: "3", err: errors.New("missing name")},
		{key: "4", apply: func(ctx context.Context) error { return nil }},
		{key: "5", apply: func(ctx context.Context) error { return nil }},
	}

	res, err := p.run(context.Background(), "countries", items, Options{Trigger: models.TriggerManual})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 4, res.OK)
	assert.Equal(t, 1, res.Fail)
	assert.Equal(t, 1, res.BatchID)

	// Every record got an item row, in input order, and only the invalid
	// one failed.
	require.Len(t, store.items, 5)
	for i, it := range store.items {
		assert.Equal(t, items[i].key, it.ItemKey)
		if it.ItemKey == "3" {
			assert.Equal(t, models.ItemFailed, it.Status)
			assert.Equal(t, "missing name", it.ErrorMessage.String)
		} else {
			assert.Equal(t, models.ItemSuccess, it.Status)
			assert.False(t, it.ErrorMessage.Valid)
		}
	}

	// Item failures never fail the batch.
	require.Len(t, store.finished, 1)
	assert.Equal(t, models.BatchSuccess, store.finished[0].status)
	assert.Equal(t, 4, store.finished[0].success)
	assert.Equal(t, 1, store.finished[0].failed)
}

func TestRunTruncatesItemError(t *testing.T) {
	store := &fakeBatchStore{}
	p := &Pipeline{batches: store}

	long := strings.Repeat("x", 2*maxItemErrorLen)
	items := []item{
		{key: "1", apply: func(ctx context.Context) error { return errors.New(long) }},
	}

	res, err := p.run(context.Background(), "teams", items, Options{Trigger: models.TriggerAutomatic})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fail)

	require.Len(t, store.items, 1)
	assert.Len(t, store.items[0].ErrorMessage.String, maxItemErrorLen)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	store := &fakeBatchStore{}
	p := &Pipeline{batches: store}

	applied := false
	items := []item{
		{key: "1", apply: func(ctx context.Context) error { applied = true; return nil }},
		{key: "2", err: errors.New("bad record")},
	}

	res, err := p.run(context.Background(), "leagues", items, Options{Trigger: models.TriggerManual, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.OK)
	assert.Equal(t, 1, res.Fail)
	assert.Equal(t, 0, res.BatchID)

	assert.False(t, applied, "dry run must not touch the database")
	assert.Empty(t, store.created)
	assert.Empty(t, store.items)
	assert.Empty(t, store.finished)
}

func TestRunRecordsTrigger(t *testing.T) {
	store := &fakeBatchStore{}
	p := &Pipeline{batches: store}

	_, err := p.run(context.Background(), "countries", nil, Options{
		Trigger:     models.TriggerManual,
		TriggeredBy: "ops@example.com",
	})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, models.TriggerManual, store.created[0].Trigger)
	assert.Equal(t, "ops@example.com", store.created[0].TriggeredBy.String)
}

func TestRunCanceledContextFailsBatch(t *testing.T) {
	store := &fakeBatchStore{}
	p := &Pipeline{batches: store}

	ctx, cancel := context.WithCancel(context.Background())
	items := []item{
		{key: "1", apply: func(ctx context.Context) error { cancel(); return nil }},
		{key: "2", apply: func(ctx context.Context) error { return nil }},
	}

	res, err := p.run(ctx, "fixtures", items, Options{Trigger: models.TriggerAutomatic})
	require.Error(t, err)

	assert.Equal(t, 1, res.OK)
	require.Len(t, store.finished, 1)
	assert.Equal(t, models.BatchFailed, store.finished[0].status)
}
