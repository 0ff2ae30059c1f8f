package models

import (
	"database/sql"
	"time"
)

// PoolGroup is a prediction pool sharing a scoring ruleset. Group membership
// and standings live outside this service; only the scoring rule and the
// fixture/prediction rows surface here.
type PoolGroup struct {
	ID   int    `db:"id"`
	Name string `db:"name"`

	// Scoring rule, per group. Outcome points are the base award for the
	// correct result; the bonuses stack on top when they apply.
	OutcomePoints   int `db:"outcome_points"`
	ExactScoreBonus int `db:"exact_score_bonus"`
	GoalDiffBonus   int `db:"goal_diff_bonus"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GroupFixture includes a fixture in a group's list. Stable once published.
type GroupFixture struct {
	ID        int       `db:"id"`
	GroupID   int       `db:"group_id"`
	FixtureID int       `db:"fixture_id"`
	CreatedAt time.Time `db:"created_at"`
}

// GroupFixtureDetail pairs a group fixture with its owning group, as loaded
// for a settlement pass.
type GroupFixtureDetail struct {
	GroupFixture GroupFixture
	Group        PoolGroup
}

// PointsUpdate is one settlement write: the points a prediction earned and
// when the pass ran. All updates for one fixture commit in one transaction.
type PointsUpdate struct {
	PredictionID int
	Points       int
	SettledAt    time.Time
}

// GroupPrediction is one user's guessed score for one group fixture.
// SettledAt is set iff PointsAwarded is non-null; both are rewritten on every
// settlement pass so a rule change or score correction can be replayed.
type GroupPrediction struct {
	ID             int           `db:"id"`
	GroupFixtureID int           `db:"group_fixture_id"`
	UserRef        string        `db:"user_ref"`
	PredictedHome  int           `db:"predicted_home"`
	PredictedAway  int           `db:"predicted_away"`
	PointsAwarded  sql.NullInt32 `db:"points_awarded"`
	SettledAt      sql.NullTime  `db:"settled_at"`
	CreatedAt      time.Time     `db:"created_at"`
}
