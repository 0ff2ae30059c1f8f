package models

import (
	"database/sql"
	"time"
)

// Batch statuses. A batch is created running and transitions to exactly one
// terminal status; rows are immutable after that.
const (
	BatchRunning = "running"
	BatchSuccess = "success"
	BatchFailed  = "failed"
	BatchSkipped = "skipped"
)

// Trigger sources shared by batches and job runs.
const (
	TriggerManual    = "manual"
	TriggerAutomatic = "automatic"
)

// Batch records one execution of the upsert pipeline for one entity kind.
// Item failures do not fail the batch; only a fetch-level or precondition
// failure does.
type Batch struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Status       string         `db:"status"`
	Trigger      string         `db:"trigger"`
	TriggeredBy  sql.NullString `db:"triggered_by"`
	StartedAt    time.Time      `db:"started_at"`
	FinishedAt   sql.NullTime   `db:"finished_at"`
	ItemsTotal   int            `db:"items_total"`
	ItemsSuccess int            `db:"items_success"`
	ItemsFailed  int            `db:"items_failed"`
	Meta         map[string]any `db:"meta"`
}

// BatchItem statuses.
const (
	ItemSuccess = "success"
	ItemFailed  = "failed"
	ItemSkipped = "skipped"
)

// BatchItem records the outcome of one input record within a batch.
// Append-only.
type BatchItem struct {
	ID           int            `db:"id"`
	BatchID      int            `db:"batch_id"`
	ItemKey      string         `db:"item_key"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	Meta         map[string]any `db:"meta"`
	CreatedAt    time.Time      `db:"created_at"`
}
