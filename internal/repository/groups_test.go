package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"footypool/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedFixture inserts the reference chain one fixture needs and returns the
// fixture id.
func seedFixture(t *testing.T, db *Database, ctx context.Context, state string, homeGoals, awayGoals *int) int {
	t.Helper()

	countryID, err := db.Countries.Insert(ctx, db.Pool, &models.Country{Name: "Seedland"})
	require.NoError(t, err)

	leagueID, err := db.Leagues.Insert(ctx, db.Pool, &models.League{Name: "Seed League", CountryID: countryID})
	require.NoError(t, err)

	seasonID, err := db.Leagues.InsertSeason(ctx, db.Pool, &models.Season{LeagueID: leagueID, Year: 2026, Current: true})
	require.NoError(t, err)

	homeID, err := db.Teams.Insert(ctx, db.Pool, &models.Team{Name: "Seed Home", CountryID: countryID})
	require.NoError(t, err)
	awayID, err := db.Teams.Insert(ctx, db.Pool, &models.Team{Name: "Seed Away", CountryID: countryID})
	require.NoError(t, err)

	fixture := &models.Fixture{
		LeagueID:   leagueID,
		SeasonID:   seasonID,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		State:      state,
		StartsAt:   time.Now().Add(-2 * time.Hour),
	}
	if homeGoals != nil {
		fixture.HomeGoals = sql.NullInt32{Int32: int32(*homeGoals), Valid: true}
	}
	if awayGoals != nil {
		fixture.AwayGoals = sql.NullInt32{Int32: int32(*awayGoals), Valid: true}
	}

	fixtureID, err := db.Fixtures.Insert(ctx, db.Pool, fixture)
	require.NoError(t, err)
	return fixtureID
}

// seedGroup inserts a pool group with one group fixture and two predictions,
// returning the group and group fixture ids. Group rows are owned by another
// service, so tests write them raw.
func seedGroup(t *testing.T, db *Database, ctx context.Context, fixtureID int) (int, int) {
	t.Helper()

	var groupID int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO pool_groups (name, outcome_points, exact_score_bonus, goal_diff_bonus)
		VALUES ('test group', 3, 2, 1)
		RETURNING id
	`).Scan(&groupID)
	require.NoError(t, err)

	var groupFixtureID int
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO group_fixtures (group_id, fixture_id)
		VALUES ($1, $2)
		RETURNING id
	`, groupID, fixtureID).Scan(&groupFixtureID)
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO group_predictions (group_fixture_id, user_ref, predicted_home, predicted_away)
		VALUES ($1, 'alice', 2, 1), ($1, 'bob', 0, 0)
	`, groupFixtureID)
	require.NoError(t, err)

	return groupID, groupFixtureID
}

func TestGroupRepository_GroupsForFixture(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	two, one := 2, 1
	fixtureID := seedFixture(t, db, ctx, models.StateFullTime, &two, &one)
	groupID, groupFixtureID := seedGroup(t, db, ctx, fixtureID)

	details, err := db.Groups.GroupsForFixture(ctx, fixtureID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, groupID, details[0].Group.ID)
	assert.Equal(t, groupFixtureID, details[0].GroupFixture.ID)
	assert.Equal(t, 3, details[0].Group.OutcomePoints)
}

func TestGroupRepository_WritePointsTransactional(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	two, one := 2, 1
	fixtureID := seedFixture(t, db, ctx, models.StateFullTime, &two, &one)
	_, groupFixtureID := seedGroup(t, db, ctx, fixtureID)

	predictions, err := db.Groups.PredictionsForGroupFixture(ctx, groupFixtureID)
	require.NoError(t, err)
	require.Len(t, predictions, 2)

	settledAt := time.Now().UTC()
	updates := []models.PointsUpdate{
		{PredictionID: predictions[0].ID, Points: 6, SettledAt: settledAt},
		{PredictionID: predictions[1].ID, Points: 0, SettledAt: settledAt},
	}
	require.NoError(t, db.Groups.WritePoints(ctx, updates))

	settled, err := db.Groups.PredictionsForGroupFixture(ctx, groupFixtureID)
	require.NoError(t, err)
	for _, p := range settled {
		assert.True(t, p.PointsAwarded.Valid, "Every prediction should be settled")
		assert.True(t, p.SettledAt.Valid)
	}
	assert.EqualValues(t, 6, settled[0].PointsAwarded.Int32)
	assert.EqualValues(t, 0, settled[1].PointsAwarded.Int32)
}

func TestGroupRepository_WritePointsUnknownPredictionRollsBack(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	two, one := 2, 1
	fixtureID := seedFixture(t, db, ctx, models.StateFullTime, &two, &one)
	_, groupFixtureID := seedGroup(t, db, ctx, fixtureID)

	predictions, err := db.Groups.PredictionsForGroupFixture(ctx, groupFixtureID)
	require.NoError(t, err)

	updates := []models.PointsUpdate{
		{PredictionID: predictions[0].ID, Points: 3, SettledAt: time.Now().UTC()},
		{PredictionID: -1, Points: 3, SettledAt: time.Now().UTC()},
	}
	require.Error(t, db.Groups.WritePoints(ctx, updates), "Unknown prediction must fail the write")

	// The valid update must have rolled back with the bad one.
	after, err := db.Groups.PredictionsForGroupFixture(ctx, groupFixtureID)
	require.NoError(t, err)
	assert.False(t, after[0].PointsAwarded.Valid, "Partial settlement must not persist")
}

func TestFixtureRepository_ListFinishedUnsettled(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	two, one := 2, 1
	finishedID := seedFixture(t, db, ctx, models.StateFullTime, &two, &one)
	seedGroup(t, db, ctx, finishedID)

	// A live fixture with predictions must not appear.
	liveID := seedFixture(t, db, ctx, models.StateSecondHalf, &one, &one)
	seedGroup(t, db, ctx, liveID)

	fixtures, err := db.Fixtures.ListFinishedUnsettled(ctx, 100)
	require.NoError(t, err)

	ids := make(map[int]bool)
	for _, f := range fixtures {
		ids[f.ID] = true
	}
	assert.True(t, ids[finishedID], "Finished fixture with unsettled predictions should be listed")
	assert.False(t, ids[liveID], "Live fixture must not be listed")

	// Settle it; the fixture must drop out of the list.
	predictions, err := db.Groups.PredictionsForGroupFixture(ctx, firstGroupFixtureID(t, db, ctx, finishedID))
	require.NoError(t, err)
	settledAt := time.Now().UTC()
	var updates []models.PointsUpdate
	for _, p := range predictions {
		updates = append(updates, models.PointsUpdate{PredictionID: p.ID, Points: 1, SettledAt: settledAt})
	}
	require.NoError(t, db.Groups.WritePoints(ctx, updates))

	fixtures, err = db.Fixtures.ListFinishedUnsettled(ctx, 100)
	require.NoError(t, err)
	for _, f := range fixtures {
		assert.NotEqual(t, finishedID, f.ID, "Settled fixture must not be listed again")
	}
}

func firstGroupFixtureID(t *testing.T, db *Database, ctx context.Context, fixtureID int) int {
	t.Helper()
	details, err := db.Groups.GroupsForFixture(ctx, fixtureID)
	require.NoError(t, err)
	require.NotEmpty(t, details)
	return details[0].GroupFixture.ID
}
