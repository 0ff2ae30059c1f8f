package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"footypool/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunStore keeps job descriptors and run rows in memory.
type fakeRunStore struct {
	mu       sync.Mutex
	disabled map[string]bool
	runs     []*models.JobRun
	finishes []finishRunCall
}

type finishRunCall struct {
	id           int
	status       string
	rowsAffected int
	errMsg       string
	errStack     string
	meta         map[string]any
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{disabled: make(map[string]bool)}
}

func (f *fakeRunStore) EnsureJob(ctx context.Context, key, description string) error {
	return nil
}

func (f *fakeRunStore) JobByKey(ctx context.Context, key string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Job{Key: key, Enabled: !f.disabled[key]}, nil
}

func (f *fakeRunStore) CreateRun(ctx context.Context, run *models.JobRun) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = len(f.runs) + 1
	f.runs = append(f.runs, run)
	return run.ID, nil
}

func (f *fakeRunStore) FinishRun(ctx context.Context, id int, status string, durationMs int64, rowsAffected int, errMsg, errStack string, meta map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, finishRunCall{
		id: id, status: status, rowsAffected: rowsAffected,
		errMsg: errMsg, errStack: errStack, meta: meta,
	})
	return nil
}

func TestRunSuccess(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store)

	def := Definition{
		Key: "sync-teams",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			return &Outcome{RowsAffected: 42, Meta: map[string]any{"batch_id": 7}}, nil
		},
	}

	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerManual, TriggeredBy: "ops"})
	require.NoError(t, err)

	require.Len(t, store.runs, 1)
	assert.Equal(t, models.RunRunning, store.runs[0].Status)
	assert.Equal(t, "ops", store.runs[0].TriggeredBy.String)

	require.Len(t, store.finishes, 1)
	assert.Equal(t, models.RunSuccess, store.finishes[0].status)
	assert.Equal(t, 42, store.finishes[0].rowsAffected)
	assert.Equal(t, 7, store.finishes[0].meta["batch_id"])
}

func TestRunFailureTruncatesError(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store)

	long := strings.Repeat("e", 2*maxErrorMessageLen)
	def := Definition{
		Key: "sync-odds",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			return nil, errors.New(long)
		},
	}

	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerAutomatic})
	require.Error(t, err)

	require.Len(t, store.finishes, 1)
	assert.Equal(t, models.RunFailed, store.finishes[0].status)
	assert.Len(t, store.finishes[0].errMsg, maxErrorMessageLen)
}

func TestRunPanicBecomesFailedRun(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store)

	def := Definition{
		Key: "sync-fixtures",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			panic("boom")
		},
	}

	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerAutomatic})
	require.Error(t, err)

	require.Len(t, store.finishes, 1)
	assert.Equal(t, models.RunFailed, store.finishes[0].status)
	assert.Contains(t, store.finishes[0].errMsg, "panic: boom")
	assert.NotEmpty(t, store.finishes[0].errStack)

	// The lock must be free again after a panic.
	assert.True(t, runner.locker.TryLock("sync-fixtures"))
}

func TestRunSkippedOnMissingPreconditions(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store)

	def := Definition{
		Key: "sync-countries",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			return nil, &SkipError{Reason: "provider credentials not configured"}
		},
	}

	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerAutomatic})
	require.NoError(t, err, "skipped is not a failure")

	require.Len(t, store.finishes, 1)
	assert.Equal(t, models.RunSkipped, store.finishes[0].status)
	assert.Equal(t, "provider credentials not configured", store.finishes[0].errMsg)
}

func TestRunDisabledJobSkipsScheduledTrigger(t *testing.T) {
	store := newFakeRunStore()
	store.disabled["sync-leagues"] = true
	runner := NewRunner(store)

	executed := false
	def := Definition{
		Key: "sync-leagues",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			executed = true
			return &Outcome{}, nil
		},
	}

	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerAutomatic})
	require.NoError(t, err)
	assert.False(t, executed)

	require.Len(t, store.runs, 1)
	assert.Equal(t, models.RunSkipped, store.runs[0].Status)
	assert.Equal(t, "disabled", store.runs[0].Meta["reason"])
}

func TestRunDisabledJobStillRunsManually(t *testing.T) {
	store := newFakeRunStore()
	store.disabled["sync-leagues"] = true
	runner := NewRunner(store)

	executed := false
	def := Definition{
		Key: "sync-leagues",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			executed = true
			return &Outcome{}, nil
		},
	}

	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerManual, TriggeredBy: "ops"})
	require.NoError(t, err)
	assert.True(t, executed)

	require.Len(t, store.finishes, 1)
	assert.Equal(t, models.RunSuccess, store.finishes[0].status)
}

func TestRunLockedJobIsDropped(t *testing.T) {
	store := newFakeRunStore()
	runner := NewRunner(store)

	started := make(chan struct{})
	release := make(chan struct{})
	def := Definition{
		Key: "sync-fixtures",
		Handler: func(ctx context.Context, opts RunOptions) (*Outcome, error) {
			close(started)
			<-release
			return &Outcome{}, nil
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerAutomatic})
	}()
	<-started

	// Second trigger while the first run holds the lock: no-op, no run row.
	err := runner.Run(context.Background(), def, RunOptions{Trigger: models.TriggerAutomatic})
	require.NoError(t, err)

	store.mu.Lock()
	assert.Len(t, store.runs, 1)
	store.mu.Unlock()

	close(release)
	require.NoError(t, <-done)
}
