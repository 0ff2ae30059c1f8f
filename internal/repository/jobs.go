package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// JobRepository handles job descriptor and job run database operations
type JobRepository struct {
	db *Database
}

// EnsureJob creates the persisted descriptor for a job key if it does not
// exist. Create-only: operator-edited fields like "enabled" are never
// overwritten by the runner.
func (r *JobRepository) EnsureJob(ctx context.Context, key, description string) error {
	query := `
		INSERT INTO jobs (key, description, enabled)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (key) DO NOTHING
	`

	desc := sql.NullString{}
	if description != "" {
		desc = sql.NullString{String: description, Valid: true}
	}

	tag, err := r.db.Pool.Exec(ctx, query, key, desc)
	if err != nil {
		return fmt.Errorf("failed to ensure job: %w", err)
	}
	if tag.RowsAffected() > 0 {
		log.Info().Str("job", key).Msg("Job descriptor created")
	}

	return nil
}

// JobByKey retrieves a job descriptor.
func (r *JobRepository) JobByKey(ctx context.Context, key string) (*models.Job, error) {
	query := `
		SELECT id, key, description, enabled, created_at, updated_at
		FROM jobs
		WHERE key = $1
	`

	var job models.Job
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(
		&job.ID, &job.Key, &job.Description, &job.Enabled, &job.CreatedAt, &job.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job not found: key=%s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// SetEnabled flips the operator-owned enabled flag.
func (r *JobRepository) SetEnabled(ctx context.Context, key string, enabled bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE jobs SET enabled = $1, updated_at = NOW() WHERE key = $2`,
		enabled, key,
	)
	if err != nil {
		return fmt.Errorf("failed to set job enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: key=%s", key)
	}

	return nil
}

// CreateRun inserts a job run with the given status and returns its id.
// Skipped runs are written terminal in one shot; running runs are finished
// later by FinishRun.
func (r *JobRepository) CreateRun(ctx context.Context, run *models.JobRun) (int, error) {
	meta, err := metaJSON(run.Meta)
	if err != nil {
		return 0, err
	}

	if run.Status != models.RunRunning {
		// Terminal at creation (skipped runs): finished_at = started_at.
		query := `
			INSERT INTO job_runs (job_key, status, trigger, triggered_by, started_at, finished_at, error_message, meta)
			VALUES ($1, $2, $3, $4, NOW(), NOW(), $5, $6)
			RETURNING id, started_at
		`
		err = r.db.Pool.QueryRow(ctx, query,
			run.JobKey, run.Status, run.Trigger, run.TriggeredBy, run.ErrorMessage, meta,
		).Scan(&run.ID, &run.StartedAt)
	} else {
		query := `
			INSERT INTO job_runs (job_key, status, trigger, triggered_by, started_at, meta)
			VALUES ($1, $2, $3, $4, NOW(), $5)
			RETURNING id, started_at
		`
		err = r.db.Pool.QueryRow(ctx, query,
			run.JobKey, run.Status, run.Trigger, run.TriggeredBy, meta,
		).Scan(&run.ID, &run.StartedAt)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to create job run: %w", err)
	}

	return run.ID, nil
}

// FinishRun records the terminal status and outcome of a running job run.
func (r *JobRepository) FinishRun(ctx context.Context, id int, status string, durationMs int64, rowsAffected int, errMsg, errStack string, meta map[string]any) error {
	metaData, err := metaJSON(meta)
	if err != nil {
		return err
	}

	message := sql.NullString{}
	if errMsg != "" {
		message = sql.NullString{String: errMsg, Valid: true}
	}
	stack := sql.NullString{}
	if errStack != "" {
		stack = sql.NullString{String: errStack, Valid: true}
	}

	query := `
		UPDATE job_runs
		SET status = $1, duration_ms = $2, rows_affected = $3,
		    error_message = $4, error_stack = $5, meta = COALESCE($6, meta),
		    finished_at = NOW()
		WHERE id = $7 AND status = $8
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		status, durationMs, rowsAffected, message, stack, metaData, id, models.RunRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to finish job run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job run not running: id=%d", id)
	}

	return nil
}

// ListRecentRuns returns the most recent runs for a job key, newest first.
func (r *JobRepository) ListRecentRuns(ctx context.Context, key string, limit int) ([]models.JobRun, error) {
	query := `
		SELECT id, job_key, status, trigger, triggered_by, started_at, finished_at,
		       duration_ms, rows_affected, error_message, error_stack, meta
		FROM job_runs
		WHERE job_key = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer rows.Close()

	var runs []models.JobRun
	for rows.Next() {
		var run models.JobRun
		var meta []byte
		err := rows.Scan(
			&run.ID, &run.JobKey, &run.Status, &run.Trigger, &run.TriggeredBy,
			&run.StartedAt, &run.FinishedAt,
			&run.DurationMs, &run.RowsAffected, &run.ErrorMessage, &run.ErrorStack, &meta,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &run.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal run meta: %w", err)
			}
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job runs: %w", err)
	}

	return runs, nil
}
