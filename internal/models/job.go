package models

import (
	"database/sql"
	"time"
)

// JobRun statuses mirror batch statuses one level higher.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunFailed  = "failed"
	RunSkipped = "skipped"
)

// Job is the persisted descriptor for a schedulable unit of work. Rows are
// create-only from code; Enabled is operator-owned and never overwritten by
// the runner. Disabling a job only suppresses unattended scheduling; manual
// triggers still execute.
type Job struct {
	ID          int            `db:"id"`
	Key         string         `db:"key"`
	Description sql.NullString `db:"description"`
	Enabled     bool           `db:"enabled"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// JobRun records one invocation of a job: who triggered it, how long it took,
// how many rows it touched and, on failure, a truncated error message and
// stack. Historical rows are retained unbounded for audit.
type JobRun struct {
	ID           int            `db:"id"`
	JobKey       string         `db:"job_key"`
	Status       string         `db:"status"`
	Trigger      string         `db:"trigger"`
	TriggeredBy  sql.NullString `db:"triggered_by"`
	StartedAt    time.Time      `db:"started_at"`
	FinishedAt   sql.NullTime   `db:"finished_at"`
	DurationMs   sql.NullInt64  `db:"duration_ms"`
	RowsAffected int            `db:"rows_affected"`
	ErrorMessage sql.NullString `db:"error_message"`
	ErrorStack   sql.NullString `db:"error_stack"`
	Meta         map[string]any `db:"meta"`
}
