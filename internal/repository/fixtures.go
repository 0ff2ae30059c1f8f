package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// FixtureRepository handles fixture database operations
type FixtureRepository struct {
	db *Database
}

const fixtureColumns = `
	id, league_id, season_id, home_team_id, away_team_id, state, starts_at, round,
	home_goals, away_goals,
	halftime_home, halftime_away, fulltime_home, fulltime_away,
	extra_home, extra_away, penalty_home, penalty_away,
	created_at, updated_at
`

func scanFixture(row pgx.Row) (*models.Fixture, error) {
	var f models.Fixture
	err := row.Scan(
		&f.ID, &f.LeagueID, &f.SeasonID, &f.HomeTeamID, &f.AwayTeamID, &f.State, &f.StartsAt, &f.Round,
		&f.HomeGoals, &f.AwayGoals,
		&f.HalftimeHome, &f.HalftimeAway, &f.FulltimeHome, &f.FulltimeAway,
		&f.ExtraHome, &f.ExtraAway, &f.PenaltyHome, &f.PenaltyAway,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Insert creates a new fixture row and returns its id.
func (r *FixtureRepository) Insert(ctx context.Context, q querier, fixture *models.Fixture) (int, error) {
	query := `
		INSERT INTO fixtures (
			league_id, season_id, home_team_id, away_team_id, state, starts_at, round,
			home_goals, away_goals,
			halftime_home, halftime_away, fulltime_home, fulltime_away,
			extra_home, extra_away, penalty_home, penalty_away
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	var id int
	err := q.QueryRow(ctx, query,
		fixture.LeagueID, fixture.SeasonID, fixture.HomeTeamID, fixture.AwayTeamID,
		fixture.State, fixture.StartsAt, fixture.Round,
		fixture.HomeGoals, fixture.AwayGoals,
		fixture.HalftimeHome, fixture.HalftimeAway, fixture.FulltimeHome, fixture.FulltimeAway,
		fixture.ExtraHome, fixture.ExtraAway, fixture.PenaltyHome, fixture.PenaltyAway,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fixture: %w", err)
	}

	log.Debug().
		Int("id", id).
		Str("state", fixture.State).
		Msg("Fixture created")

	return id, nil
}

// Update overwrites the fields of an existing fixture by internal id.
// Ingestion calls this repeatedly as the provider reports state and score
// changes.
func (r *FixtureRepository) Update(ctx context.Context, id int, fixture *models.Fixture) error {
	query := `
		UPDATE fixtures
		SET league_id = $1, season_id = $2, home_team_id = $3, away_team_id = $4,
		    state = $5, starts_at = $6, round = $7,
		    home_goals = $8, away_goals = $9,
		    halftime_home = $10, halftime_away = $11, fulltime_home = $12, fulltime_away = $13,
		    extra_home = $14, extra_away = $15, penalty_home = $16, penalty_away = $17,
		    updated_at = NOW()
		WHERE id = $18
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		fixture.LeagueID, fixture.SeasonID, fixture.HomeTeamID, fixture.AwayTeamID,
		fixture.State, fixture.StartsAt, fixture.Round,
		fixture.HomeGoals, fixture.AwayGoals,
		fixture.HalftimeHome, fixture.HalftimeAway, fixture.FulltimeHome, fixture.FulltimeAway,
		fixture.ExtraHome, fixture.ExtraAway, fixture.PenaltyHome, fixture.PenaltyAway,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update fixture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fixture not found: id=%d", id)
	}

	return nil
}

// GetByID retrieves a fixture by its internal id
func (r *FixtureRepository) GetByID(ctx context.Context, id int) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE id = $1`

	fixture, err := scanFixture(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fixture not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture: %w", err)
	}

	return fixture, nil
}

// ListFinishedUnsettled returns fixtures in a finished state that still have
// group predictions without points. This feeds the settlement job.
func (r *FixtureRepository) ListFinishedUnsettled(ctx context.Context, limit int) ([]*models.Fixture, error) {
	query := `
		SELECT DISTINCT ` + fixtureColumns + `
		FROM fixtures
		WHERE state IN ('FT', 'AET', 'PEN')
		  AND home_goals IS NOT NULL AND away_goals IS NOT NULL
		  AND id IN (
			SELECT gf.fixture_id
			FROM group_fixtures gf
			JOIN group_predictions gp ON gp.group_fixture_id = gf.id
			WHERE gp.settled_at IS NULL
		  )
		ORDER BY starts_at
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []*models.Fixture
	for rows.Next() {
		fixture, err := scanFixture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		fixtures = append(fixtures, fixture)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixtures: %w", err)
	}

	log.Debug().Int("count", len(fixtures)).Msg("Retrieved finished unsettled fixtures")
	return fixtures, nil
}

// Count returns the total number of fixtures
func (r *FixtureRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM fixtures`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count fixtures: %w", err)
	}

	return count, nil
}
