package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"footypool/ingestion/internal/metrics"
	"footypool/ingestion/internal/models"
	"footypool/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

// Truncation limit for per-item error messages.
const maxItemErrorLen = 500

// BatchStore persists batch bookkeeping rows. Satisfied by
// *repository.BatchRepository.
type BatchStore interface {
	CreateBatch(ctx context.Context, batch *models.Batch) (int, error)
	AddItem(ctx context.Context, item *models.BatchItem) error
	FinishBatch(ctx context.Context, id int, status string, success, failed, total int, meta map[string]any) error
}

// Options controls one pipeline invocation.
type Options struct {
	Trigger     string // manual | automatic
	TriggeredBy string // actor ref, set for manual triggers
	DryRun      bool   // normalize and count without writing
}

// Result summarizes one pipeline invocation.
type Result struct {
	BatchID int
	OK      int
	Fail    int
	Total   int
}

// item is one keyed unit of work inside a batch. err carries a normalization
// failure detected before any write; apply performs the upsert.
type item struct {
	key   string
	err   error
	apply func(ctx context.Context) error
}

// Pipeline resolves external-id mappings and idempotently upserts normalized
// records for one entity kind at a time, recording a Batch with ordered
// BatchItems. Records are processed strictly sequentially and processing
// continues past individual failures.
type Pipeline struct {
	db      *repository.Database
	batches BatchStore
}

// NewPipeline creates a pipeline over the database.
func NewPipeline(db *repository.Database) *Pipeline {
	return &Pipeline{db: db, batches: db.Batches}
}

// run executes the items of one batch. Item failures never fail the batch;
// the batch ends "failed" only when processing itself is cut short.
func (p *Pipeline) run(ctx context.Context, name string, items []item, opts Options) (*Result, error) {
	res := &Result{Total: len(items)}

	if opts.DryRun {
		for _, it := range items {
			if it.err != nil {
				res.Fail++
			} else {
				res.OK++
			}
		}
		log.Info().
			Str("batch", name).
			Int("total", res.Total).
			Int("ok", res.OK).
			Int("fail", res.Fail).
			Msg("Dry run complete, nothing written")
		return res, nil
	}

	batch := &models.Batch{
		Name:    name,
		Trigger: opts.Trigger,
	}
	if opts.TriggeredBy != "" {
		batch.TriggeredBy = sql.NullString{String: opts.TriggeredBy, Valid: true}
	}

	batchID, err := p.batches.CreateBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch: %w", err)
	}
	res.BatchID = batchID

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			// Cut short: record what we have and surface the cancellation.
			if finishErr := p.batches.FinishBatch(ctx, batchID, models.BatchFailed, res.OK, res.Fail, res.Total, nil); finishErr != nil {
				log.Error().Err(finishErr).Int("batch_id", batchID).Msg("Failed to finalize canceled batch")
			}
			return res, fmt.Errorf("batch %s canceled: %w", name, err)
		}

		itemErr := it.err
		if itemErr == nil && it.apply != nil {
			itemErr = it.apply(ctx)
		}

		bi := &models.BatchItem{BatchID: batchID, ItemKey: it.key}
		if itemErr != nil {
			res.Fail++
			bi.Status = models.ItemFailed
			bi.ErrorMessage = sql.NullString{String: truncate(itemErr.Error(), maxItemErrorLen), Valid: true}
			metrics.RecordBatchItem(name, "failed")
			log.Warn().
				Err(itemErr).
				Str("batch", name).
				Str("item", it.key).
				Msg("Batch item failed")
		} else {
			res.OK++
			bi.Status = models.ItemSuccess
			metrics.RecordBatchItem(name, "success")
		}

		if err := p.batches.AddItem(ctx, bi); err != nil {
			// Bookkeeping failure; the upsert itself already happened.
			log.Error().Err(err).Int("batch_id", batchID).Str("item", it.key).Msg("Failed to record batch item")
		}
	}

	if err := p.batches.FinishBatch(ctx, batchID, models.BatchSuccess, res.OK, res.Fail, res.Total, nil); err != nil {
		return res, fmt.Errorf("failed to finalize batch: %w", err)
	}

	metrics.RecordBatch(name, models.BatchSuccess)
	log.Info().
		Str("batch", name).
		Int("batch_id", batchID).
		Int("total", res.Total).
		Int("ok", res.OK).
		Int("fail", res.Fail).
		Msg("Batch complete")

	return res, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
