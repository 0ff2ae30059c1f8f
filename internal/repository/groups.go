package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GroupRepository handles prediction-pool group database operations. Groups
// and predictions are created elsewhere; this service reads them for
// settlement and writes points.
type GroupRepository struct {
	db *Database
}

// GetGroup retrieves a group by id
func (r *GroupRepository) GetGroup(ctx context.Context, id int) (*models.PoolGroup, error) {
	query := `
		SELECT id, name, outcome_points, exact_score_bonus, goal_diff_bonus, created_at, updated_at
		FROM pool_groups
		WHERE id = $1
	`

	var group models.PoolGroup
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&group.ID, &group.Name, &group.OutcomePoints, &group.ExactScoreBonus,
		&group.GoalDiffBonus, &group.CreatedAt, &group.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return &group, nil
}

// GroupsForFixture returns every group fixture referencing a fixture,
// joined with the owning group's scoring rule.
func (r *GroupRepository) GroupsForFixture(ctx context.Context, fixtureID int) ([]models.GroupFixtureDetail, error) {
	query := `
		SELECT gf.id, gf.group_id, gf.fixture_id, gf.created_at,
		       g.id, g.name, g.outcome_points, g.exact_score_bonus, g.goal_diff_bonus,
		       g.created_at, g.updated_at
		FROM group_fixtures gf
		JOIN pool_groups g ON g.id = gf.group_id
		WHERE gf.fixture_id = $1
		ORDER BY gf.id
	`

	rows, err := r.db.Pool.Query(ctx, query, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group fixtures: %w", err)
	}
	defer rows.Close()

	var details []models.GroupFixtureDetail
	for rows.Next() {
		var d models.GroupFixtureDetail
		err := rows.Scan(
			&d.GroupFixture.ID, &d.GroupFixture.GroupID, &d.GroupFixture.FixtureID, &d.GroupFixture.CreatedAt,
			&d.Group.ID, &d.Group.Name, &d.Group.OutcomePoints, &d.Group.ExactScoreBonus,
			&d.Group.GoalDiffBonus, &d.Group.CreatedAt, &d.Group.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group fixture: %w", err)
		}
		details = append(details, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group fixtures: %w", err)
	}

	log.Debug().Int("fixture_id", fixtureID).Int("count", len(details)).Msg("Retrieved group fixtures")
	return details, nil
}

// GroupFixturesForGroup returns the fixture list of one group.
func (r *GroupRepository) GroupFixturesForGroup(ctx context.Context, groupID int) ([]models.GroupFixture, error) {
	query := `
		SELECT id, group_id, fixture_id, created_at
		FROM group_fixtures
		WHERE group_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []models.GroupFixture
	for rows.Next() {
		var gf models.GroupFixture
		if err := rows.Scan(&gf.ID, &gf.GroupID, &gf.FixtureID, &gf.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group fixture: %w", err)
		}
		fixtures = append(fixtures, gf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group fixtures: %w", err)
	}

	return fixtures, nil
}

// PredictionsForGroupFixture returns every prediction against a group
// fixture.
func (r *GroupRepository) PredictionsForGroupFixture(ctx context.Context, groupFixtureID int) ([]models.GroupPrediction, error) {
	query := `
		SELECT id, group_fixture_id, user_ref, predicted_home, predicted_away,
		       points_awarded, settled_at, created_at
		FROM group_predictions
		WHERE group_fixture_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, groupFixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.GroupPrediction
	for rows.Next() {
		var p models.GroupPrediction
		err := rows.Scan(
			&p.ID, &p.GroupFixtureID, &p.UserRef, &p.PredictedHome, &p.PredictedAway,
			&p.PointsAwarded, &p.SettledAt, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return predictions, nil
}

// WritePoints persists all settlement updates for one fixture inside a
// single transaction, so a mid-run crash leaves predictions either fully
// settled or untouched.
func (r *GroupRepository) WritePoints(ctx context.Context, updates []models.PointsUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE group_predictions
		SET points_awarded = $1, settled_at = $2
		WHERE id = $3
	`

	for _, u := range updates {
		tag, err := tx.Exec(ctx, query, u.Points, u.SettledAt, u.PredictionID)
		if err != nil {
			return fmt.Errorf("failed to write points: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("prediction not found: id=%d", u.PredictionID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement transaction: %w", err)
	}

	log.Debug().Int("count", len(updates)).Msg("Settlement points written")
	return nil
}
