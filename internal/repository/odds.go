package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// OddsRepository handles bookmaker, market and odds database operations
type OddsRepository struct {
	db *Database
}

// InsertBookmaker creates a new bookmaker row and returns its id.
func (r *OddsRepository) InsertBookmaker(ctx context.Context, q querier, bookmaker *models.Bookmaker) (int, error) {
	var id int
	err := q.QueryRow(ctx,
		`INSERT INTO bookmakers (name) VALUES ($1) RETURNING id`,
		bookmaker.Name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bookmaker: %w", err)
	}

	return id, nil
}

// UpdateBookmaker overwrites the fields of an existing bookmaker.
func (r *OddsRepository) UpdateBookmaker(ctx context.Context, id int, bookmaker *models.Bookmaker) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE bookmakers SET name = $1, updated_at = NOW() WHERE id = $2`,
		bookmaker.Name, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update bookmaker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookmaker not found: id=%d", id)
	}

	return nil
}

// GetBookmakerByID retrieves a bookmaker by its internal id
func (r *OddsRepository) GetBookmakerByID(ctx context.Context, id int) (*models.Bookmaker, error) {
	var bookmaker models.Bookmaker
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM bookmakers WHERE id = $1`, id,
	).Scan(&bookmaker.ID, &bookmaker.Name, &bookmaker.CreatedAt, &bookmaker.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bookmaker not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmaker: %w", err)
	}

	return &bookmaker, nil
}

// InsertMarket creates a new market row and returns its id.
func (r *OddsRepository) InsertMarket(ctx context.Context, q querier, market *models.Market) (int, error) {
	var id int
	err := q.QueryRow(ctx,
		`INSERT INTO markets (name) VALUES ($1) RETURNING id`,
		market.Name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert market: %w", err)
	}

	return id, nil
}

// UpdateMarket overwrites the fields of an existing market.
func (r *OddsRepository) UpdateMarket(ctx context.Context, id int, market *models.Market) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE markets SET name = $1, updated_at = NOW() WHERE id = $2`,
		market.Name, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update market: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("market not found: id=%d", id)
	}

	return nil
}

// GetMarketByID retrieves a market by its internal id
func (r *OddsRepository) GetMarketByID(ctx context.Context, id int) (*models.Market, error) {
	var market models.Market
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM markets WHERE id = $1`, id,
	).Scan(&market.ID, &market.Name, &market.CreatedAt, &market.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("market not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	return &market, nil
}

// UpsertOdds inserts or overwrites a priced outcome, keyed on
// (fixture_id, bookmaker_id, market_id, outcome).
func (r *OddsRepository) UpsertOdds(ctx context.Context, odds *models.Odds) error {
	query := `
		INSERT INTO odds (
			fixture_id, bookmaker_id, market_id, outcome, price, handicap, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fixture_id, bookmaker_id, market_id, outcome) DO UPDATE SET
			price = EXCLUDED.price,
			handicap = EXCLUDED.handicap,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		odds.FixtureID, odds.BookmakerID, odds.MarketID, odds.Outcome,
		odds.Price, odds.Handicap, odds.FetchedAt,
	).Scan(&odds.ID, &odds.CreatedAt, &odds.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert odds: %w", err)
	}

	return nil
}

// CountOdds returns the total number of odds rows
func (r *OddsRepository) CountOdds(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM odds`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count odds: %w", err)
	}

	return count, nil
}
