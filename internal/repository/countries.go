package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// CountryRepository handles country database operations
type CountryRepository struct {
	db *Database
}

// Insert creates a new country row and returns its id. Runs on the given
// querier so it can participate in a mapping transaction.
func (r *CountryRepository) Insert(ctx context.Context, q querier, country *models.Country) (int, error) {
	query := `
		INSERT INTO countries (name, code, flag_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int
	err := q.QueryRow(ctx, query, country.Name, country.Code, country.FlagURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert country: %w", err)
	}

	return id, nil
}

// Update overwrites the fields of an existing country by internal id.
func (r *CountryRepository) Update(ctx context.Context, id int, country *models.Country) error {
	query := `
		UPDATE countries
		SET name = $1, code = $2, flag_url = $3, updated_at = NOW()
		WHERE id = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query, country.Name, country.Code, country.FlagURL, id)
	if err != nil {
		return fmt.Errorf("failed to update country: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("country not found: id=%d", id)
	}

	return nil
}

// GetByID retrieves a country by its internal id
func (r *CountryRepository) GetByID(ctx context.Context, id int) (*models.Country, error) {
	query := `
		SELECT id, name, code, flag_url, created_at, updated_at
		FROM countries
		WHERE id = $1
	`

	var country models.Country
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&country.ID, &country.Name, &country.Code, &country.FlagURL,
		&country.CreatedAt, &country.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("country not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country: %w", err)
	}

	return &country, nil
}

// Count returns the total number of countries
func (r *CountryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM countries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}

	return count, nil
}
