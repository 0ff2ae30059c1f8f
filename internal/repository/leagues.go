package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// LeagueRepository handles league and season database operations
type LeagueRepository struct {
	db *Database
}

// Insert creates a new league row and returns its id.
func (r *LeagueRepository) Insert(ctx context.Context, q querier, league *models.League) (int, error) {
	query := `
		INSERT INTO leagues (name, type, logo_url, country_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int
	err := q.QueryRow(ctx, query, league.Name, league.Type, league.LogoURL, league.CountryID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert league: %w", err)
	}

	return id, nil
}

// Update overwrites the fields of an existing league by internal id.
func (r *LeagueRepository) Update(ctx context.Context, id int, league *models.League) error {
	query := `
		UPDATE leagues
		SET name = $1, type = $2, logo_url = $3, country_id = $4, updated_at = NOW()
		WHERE id = $5
	`

	tag, err := r.db.Pool.Exec(ctx, query, league.Name, league.Type, league.LogoURL, league.CountryID, id)
	if err != nil {
		return fmt.Errorf("failed to update league: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("league not found: id=%d", id)
	}

	return nil
}

// GetByID retrieves a league by its internal id
func (r *LeagueRepository) GetByID(ctx context.Context, id int) (*models.League, error) {
	query := `
		SELECT id, name, type, logo_url, country_id, created_at, updated_at
		FROM leagues
		WHERE id = $1
	`

	var league models.League
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&league.ID, &league.Name, &league.Type, &league.LogoURL, &league.CountryID,
		&league.CreatedAt, &league.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("league not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	return &league, nil
}

// InsertSeason creates a new season row and returns its id.
func (r *LeagueRepository) InsertSeason(ctx context.Context, q querier, season *models.Season) (int, error) {
	query := `
		INSERT INTO seasons (league_id, year, start_date, end_date, current)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int
	err := q.QueryRow(ctx, query,
		season.LeagueID, season.Year, season.StartDate, season.EndDate, season.Current,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert season: %w", err)
	}

	return id, nil
}

// UpdateSeason overwrites the fields of an existing season by internal id.
func (r *LeagueRepository) UpdateSeason(ctx context.Context, id int, season *models.Season) error {
	query := `
		UPDATE seasons
		SET league_id = $1, year = $2, start_date = $3, end_date = $4, current = $5, updated_at = NOW()
		WHERE id = $6
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		season.LeagueID, season.Year, season.StartDate, season.EndDate, season.Current, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("season not found: id=%d", id)
	}

	return nil
}

// GetSeasonByID retrieves a season by its internal id
func (r *LeagueRepository) GetSeasonByID(ctx context.Context, id int) (*models.Season, error) {
	query := `
		SELECT id, league_id, year, start_date, end_date, current, created_at, updated_at
		FROM seasons
		WHERE id = $1
	`

	var season models.Season
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&season.ID, &season.LeagueID, &season.Year, &season.StartDate, &season.EndDate,
		&season.Current, &season.CreatedAt, &season.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("season not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}

	return &season, nil
}
