package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniqueExternalID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestMappingRepository_EnsureCreatesEntityAndMapping(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	externalID := uniqueExternalID("country")

	id, err := db.Mappings.Ensure(ctx, models.KindCountry, externalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return db.Countries.Insert(ctx, tx, &models.Country{Name: "Testland"})
	})
	require.NoError(t, err, "Should create mapping and entity")
	assert.Greater(t, id, 0, "Should return the internal id")

	// The entity must exist under the returned id.
	country, err := db.Countries.GetByID(ctx, id)
	require.NoError(t, err, "Should retrieve created country")
	assert.Equal(t, "Testland", country.Name)

	// Resolve must find the same internal id.
	resolved, ok, err := db.Mappings.Resolve(ctx, models.KindCountry, externalID)
	require.NoError(t, err)
	require.True(t, ok, "Mapping should exist after Ensure")
	assert.Equal(t, id, resolved)
}

func TestMappingRepository_EnsureIsIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	externalID := uniqueExternalID("team")
	countryID, err := db.Mappings.Ensure(ctx, models.KindCountry, uniqueExternalID("country"), func(ctx context.Context, tx pgx.Tx) (int, error) {
		return db.Countries.Insert(ctx, tx, &models.Country{Name: "Mappingland"})
	})
	require.NoError(t, err)

	create := func(ctx context.Context, tx pgx.Tx) (int, error) {
		return db.Teams.Insert(ctx, tx, &models.Team{Name: "Test FC", CountryID: countryID})
	}

	first, err := db.Mappings.Ensure(ctx, models.KindTeam, externalID, create)
	require.NoError(t, err)
	second, err := db.Mappings.Ensure(ctx, models.KindTeam, externalID, create)
	require.NoError(t, err)

	assert.Equal(t, first, second, "Repeated Ensure must return the same internal id")
}

func TestMappingRepository_EnsureConcurrentSingleWinner(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	externalID := uniqueExternalID("league")
	countryID, err := db.Mappings.Ensure(ctx, models.KindCountry, uniqueExternalID("country"), func(ctx context.Context, tx pgx.Tx) (int, error) {
		return db.Countries.Insert(ctx, tx, &models.Country{Name: "Raceland"})
	})
	require.NoError(t, err)

	const goroutines = 8
	ids := make([]int, goroutines)
	errs := make([]error, goroutines)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = db.Mappings.Ensure(ctx, models.KindLeague, externalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
				return db.Leagues.Insert(ctx, tx, &models.League{Name: "Race League", CountryID: countryID})
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i], "Every concurrent Ensure should succeed")
		assert.Equal(t, ids[0], ids[i], "Every caller must adopt the same internal id")
	}
}

func TestMappingRepository_ResolveMissing(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, ok, err := db.Mappings.Resolve(ctx, models.KindFixture, uniqueExternalID("never-mapped"))
	require.NoError(t, err, "Missing mapping is not an error")
	assert.False(t, ok)
}

func TestMappingRepository_FailedCreateLeavesNoOrphan(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	externalID := uniqueExternalID("country")
	before, err := db.Countries.Count(ctx)
	require.NoError(t, err)

	_, err = db.Mappings.Ensure(ctx, models.KindCountry, externalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return 0, fmt.Errorf("provider payload invalid")
	})
	require.Error(t, err, "Ensure must surface the create failure")

	after, err := db.Countries.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "Failed mapping creation must not leave an entity behind")

	_, ok, err := db.Mappings.Resolve(ctx, models.KindCountry, externalID)
	require.NoError(t, err)
	assert.False(t, ok, "No mapping should exist after a failed create")
}
