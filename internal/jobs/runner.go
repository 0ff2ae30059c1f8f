package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"footypool/ingestion/internal/metrics"
	"footypool/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Truncation limits for persisted failure details.
const (
	maxErrorMessageLen = 2000
	maxErrorStackLen   = 8000
)

// RunStore persists job descriptors and run history. Satisfied by
// *repository.JobRepository.
type RunStore interface {
	EnsureJob(ctx context.Context, key, description string) error
	JobByKey(ctx context.Context, key string) (*models.Job, error)
	CreateRun(ctx context.Context, run *models.JobRun) (int, error)
	FinishRun(ctx context.Context, id int, status string, durationMs int64, rowsAffected int, errMsg, errStack string, meta map[string]any) error
}

// RunOptions carries how a run was triggered.
type RunOptions struct {
	Trigger     string // manual | automatic
	TriggeredBy string
	DryRun      bool
}

// Outcome is what a handler reports on success.
type Outcome struct {
	RowsAffected int
	Meta         map[string]any
}

// Handler executes one job's work.
type Handler func(ctx context.Context, opts RunOptions) (*Outcome, error)

// Definition is a registered job: a stable key, a human description and the
// handler to execute.
type Definition struct {
	Key         string
	Description string
	Handler     Handler
}

// SkipError marks a run whose preconditions are not met, such as missing
// provider credentials. The run is recorded skipped, not failed.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return e.Reason
}

// Runner executes job definitions with single-flight locking and full run
// bookkeeping. Every executed or skipped run leaves a JobRun row; the only
// silent outcome is losing the lock to a run already in flight.
type Runner struct {
	store  RunStore
	locker Locker
}

// NewRunner creates a runner over the store with an in-process locker.
func NewRunner(store RunStore) *Runner {
	return &Runner{store: store, locker: NewLocker()}
}

// Run executes one job definition. The returned error is nil for success and
// for skipped runs; it is non-nil only when the run failed or bookkeeping
// itself broke.
func (r *Runner) Run(ctx context.Context, def Definition, opts RunOptions) error {
	if err := r.store.EnsureJob(ctx, def.Key, def.Description); err != nil {
		return err
	}

	job, err := r.store.JobByKey(ctx, def.Key)
	if err != nil {
		return err
	}

	// Disabled only suppresses unattended triggers. A manual trigger is an
	// operator decision and still executes.
	if !job.Enabled && opts.Trigger == models.TriggerAutomatic {
		run := &models.JobRun{
			JobKey:  def.Key,
			Status:  models.RunSkipped,
			Trigger: opts.Trigger,
			Meta:    map[string]any{"reason": "disabled"},
		}
		if _, err := r.store.CreateRun(ctx, run); err != nil {
			return err
		}
		log.Info().Str("job", def.Key).Msg("Job disabled, scheduled trigger skipped")
		return nil
	}

	if !r.locker.TryLock(def.Key) {
		// Previous run still in flight; nothing is recorded.
		log.Warn().Str("job", def.Key).Str("trigger", opts.Trigger).Msg("Job already running, trigger dropped")
		return nil
	}
	defer r.locker.Unlock(def.Key)

	run := &models.JobRun{
		JobKey:  def.Key,
		Status:  models.RunRunning,
		Trigger: opts.Trigger,
	}
	if opts.TriggeredBy != "" {
		run.TriggeredBy = sql.NullString{String: opts.TriggeredBy, Valid: true}
	}
	runID, err := r.store.CreateRun(ctx, run)
	if err != nil {
		return err
	}

	log.Info().
		Str("job", def.Key).
		Str("trigger", opts.Trigger).
		Int("run_id", runID).
		Msg("Job started")

	start := time.Now()
	outcome, stack, runErr := r.execute(ctx, def, opts)
	durationMs := time.Since(start).Milliseconds()

	if skip, ok := asSkip(runErr); ok {
		if err := r.store.FinishRun(ctx, runID, models.RunSkipped, durationMs, 0, truncate(skip.Reason, maxErrorMessageLen), "", nil); err != nil {
			return err
		}
		metrics.RecordJobRun(def.Key, models.RunSkipped, float64(durationMs)/1000)
		log.Info().Str("job", def.Key).Str("reason", skip.Reason).Msg("Job skipped")
		return nil
	}

	if runErr != nil {
		finishErr := r.store.FinishRun(ctx, runID, models.RunFailed, durationMs, 0,
			truncate(runErr.Error(), maxErrorMessageLen), truncate(stack, maxErrorStackLen), nil)
		if finishErr != nil {
			log.Error().Err(finishErr).Str("job", def.Key).Int("run_id", runID).Msg("Failed to record job failure")
		}
		metrics.RecordJobRun(def.Key, models.RunFailed, float64(durationMs)/1000)
		metrics.RecordError("jobs", "run_failed")
		log.Error().Err(runErr).Str("job", def.Key).Int64("duration_ms", durationMs).Msg("Job failed")
		return fmt.Errorf("job %s failed: %w", def.Key, runErr)
	}

	rows := 0
	var meta map[string]any
	if outcome != nil {
		rows = outcome.RowsAffected
		meta = outcome.Meta
	}
	if err := r.store.FinishRun(ctx, runID, models.RunSuccess, durationMs, rows, "", "", meta); err != nil {
		return err
	}
	metrics.RecordJobRun(def.Key, models.RunSuccess, float64(durationMs)/1000)
	log.Info().
		Str("job", def.Key).
		Int64("duration_ms", durationMs).
		Int("rows_affected", rows).
		Msg("Job finished")

	return nil
}

// execute invokes the handler with panic containment. A panicking handler
// becomes a failed run with the stack preserved, never a crashed worker.
func (r *Runner) execute(ctx context.Context, def Definition, opts RunOptions) (outcome *Outcome, stack string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stack = string(debug.Stack())
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	outcome, err = def.Handler(ctx, opts)
	return outcome, "", err
}

func asSkip(err error) (*SkipError, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
