package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// BatchRepository handles batch and batch item database operations
type BatchRepository struct {
	db *Database
}

// metaJSON serializes free-form metadata for a jsonb column. Nil and empty
// maps store as NULL.
func metaJSON(meta map[string]any) ([]byte, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meta: %w", err)
	}
	return data, nil
}

// CreateBatch inserts a batch in the running state and returns its id.
func (r *BatchRepository) CreateBatch(ctx context.Context, batch *models.Batch) (int, error) {
	meta, err := metaJSON(batch.Meta)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO batches (name, status, trigger, triggered_by, started_at, meta)
		VALUES ($1, $2, $3, $4, NOW(), $5)
		RETURNING id, started_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		batch.Name, models.BatchRunning, batch.Trigger, batch.TriggeredBy, meta,
	).Scan(&batch.ID, &batch.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create batch: %w", err)
	}

	batch.Status = models.BatchRunning

	log.Debug().
		Int("id", batch.ID).
		Str("name", batch.Name).
		Msg("Batch created")

	return batch.ID, nil
}

// AddItem appends one item outcome to a batch.
func (r *BatchRepository) AddItem(ctx context.Context, item *models.BatchItem) error {
	meta, err := metaJSON(item.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO batch_items (batch_id, item_key, status, error_message, meta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		item.BatchID, item.ItemKey, item.Status, item.ErrorMessage, meta,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add batch item: %w", err)
	}

	return nil
}

// FinishBatch records the terminal status and counters of a batch. The row
// is immutable afterwards.
func (r *BatchRepository) FinishBatch(ctx context.Context, id int, status string, success, failed, total int, meta map[string]any) error {
	metaData, err := metaJSON(meta)
	if err != nil {
		return err
	}

	query := `
		UPDATE batches
		SET status = $1, items_success = $2, items_failed = $3, items_total = $4,
		    meta = COALESCE($5, meta), finished_at = NOW()
		WHERE id = $6 AND status = $7
	`

	tag, err := r.db.Pool.Exec(ctx, query, status, success, failed, total, metaData, id, models.BatchRunning)
	if err != nil {
		return fmt.Errorf("failed to finish batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch not running: id=%d", id)
	}

	return nil
}

// GetBatch retrieves a batch by id
func (r *BatchRepository) GetBatch(ctx context.Context, id int) (*models.Batch, error) {
	query := `
		SELECT id, name, status, trigger, triggered_by, started_at, finished_at,
		       items_total, items_success, items_failed, meta
		FROM batches
		WHERE id = $1
	`

	var batch models.Batch
	var meta []byte
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&batch.ID, &batch.Name, &batch.Status, &batch.Trigger, &batch.TriggeredBy,
		&batch.StartedAt, &batch.FinishedAt,
		&batch.ItemsTotal, &batch.ItemsSuccess, &batch.ItemsFailed, &meta,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("batch not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &batch.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal batch meta: %w", err)
		}
	}

	return &batch, nil
}

// ListItems returns the items of a batch in insertion order.
func (r *BatchRepository) ListItems(ctx context.Context, batchID int) ([]models.BatchItem, error) {
	query := `
		SELECT id, batch_id, item_key, status, error_message, meta, created_at
		FROM batch_items
		WHERE batch_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch items: %w", err)
	}
	defer rows.Close()

	var items []models.BatchItem
	for rows.Next() {
		var item models.BatchItem
		var meta []byte
		if err := rows.Scan(&item.ID, &item.BatchID, &item.ItemKey, &item.Status, &item.ErrorMessage, &meta, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch item: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &item.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item meta: %w", err)
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch items: %w", err)
	}

	return items, nil
}

// ListRecentBatches returns the most recent batches for an entity kind name,
// newest first. For the operator audit view.
func (r *BatchRepository) ListRecentBatches(ctx context.Context, name string, limit int) ([]models.Batch, error) {
	query := `
		SELECT id, name, status, trigger, triggered_by, started_at, finished_at,
		       items_total, items_success, items_failed, meta
		FROM batches
		WHERE name = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []models.Batch
	for rows.Next() {
		var batch models.Batch
		var meta []byte
		err := rows.Scan(
			&batch.ID, &batch.Name, &batch.Status, &batch.Trigger, &batch.TriggeredBy,
			&batch.StartedAt, &batch.FinishedAt,
			&batch.ItemsTotal, &batch.ItemsSuccess, &batch.ItemsFailed, &meta,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &batch.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal batch meta: %w", err)
			}
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}

	return batches, nil
}
