package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

// Insert creates a new team row and returns its id.
func (r *TeamRepository) Insert(ctx context.Context, q querier, team *models.Team) (int, error) {
	query := `
		INSERT INTO teams (name, code, founded, logo_url, venue_name, country_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int
	err := q.QueryRow(ctx, query,
		team.Name, team.Code, team.Founded, team.LogoURL, team.VenueName, team.CountryID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert team: %w", err)
	}

	return id, nil
}

// Update overwrites the fields of an existing team by internal id.
func (r *TeamRepository) Update(ctx context.Context, id int, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $1, code = $2, founded = $3, logo_url = $4, venue_name = $5,
		    country_id = $6, updated_at = NOW()
		WHERE id = $7
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		team.Name, team.Code, team.Founded, team.LogoURL, team.VenueName, team.CountryID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team not found: id=%d", id)
	}

	return nil
}

// GetByID retrieves a team by its internal id
func (r *TeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, name, code, founded, logo_url, venue_name, country_id, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Code, &team.Founded, &team.LogoURL,
		&team.VenueName, &team.CountryID, &team.CreatedAt, &team.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}

	return count, nil
}
