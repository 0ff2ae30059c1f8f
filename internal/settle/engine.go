package settle

import (
	"context"
	"fmt"
	"time"

	"footypool/ingestion/internal/cache"
	"footypool/ingestion/internal/metrics"
	"footypool/ingestion/internal/models"
	"footypool/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

// Store is the persistence surface settlement needs. Satisfied by the
// adapter over *repository.Database; tests swap in an in-memory fake.
type Store interface {
	FixtureByID(ctx context.Context, id int) (*models.Fixture, error)
	GroupByID(ctx context.Context, id int) (*models.PoolGroup, error)
	GroupsForFixture(ctx context.Context, fixtureID int) ([]models.GroupFixtureDetail, error)
	GroupFixturesForGroup(ctx context.Context, groupID int) ([]models.GroupFixture, error)
	PredictionsForGroupFixture(ctx context.Context, groupFixtureID int) ([]models.GroupPrediction, error)
	WritePoints(ctx context.Context, updates []models.PointsUpdate) error
}

type dbStore struct {
	db *repository.Database
}

// NewStore adapts the repository layer to the settlement store.
func NewStore(db *repository.Database) Store {
	return &dbStore{db: db}
}

func (s *dbStore) FixtureByID(ctx context.Context, id int) (*models.Fixture, error) {
	return s.db.Fixtures.GetByID(ctx, id)
}

func (s *dbStore) GroupByID(ctx context.Context, id int) (*models.PoolGroup, error) {
	return s.db.Groups.GetGroup(ctx, id)
}

func (s *dbStore) GroupsForFixture(ctx context.Context, fixtureID int) ([]models.GroupFixtureDetail, error) {
	return s.db.Groups.GroupsForFixture(ctx, fixtureID)
}

func (s *dbStore) GroupFixturesForGroup(ctx context.Context, groupID int) ([]models.GroupFixture, error) {
	return s.db.Groups.GroupFixturesForGroup(ctx, groupID)
}

func (s *dbStore) PredictionsForGroupFixture(ctx context.Context, groupFixtureID int) ([]models.GroupPrediction, error) {
	return s.db.Groups.PredictionsForGroupFixture(ctx, groupFixtureID)
}

func (s *dbStore) WritePoints(ctx context.Context, updates []models.PointsUpdate) error {
	return s.db.Groups.WritePoints(ctx, updates)
}

// ValidationError rejects a settlement request before any row is touched.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Result reports one settlement pass over one fixture.
type Result struct {
	FixtureID               int
	GroupsAffected          int
	PredictionsRecalculated int
}

// FixtureSummary reports settlement state per group for one fixture.
type FixtureSummary struct {
	FixtureID   int               `json:"fixture_id"`
	Groups      []GroupSettlement `json:"groups"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// GroupSettlement is one group's slice of a fixture summary.
type GroupSettlement struct {
	GroupID            int    `json:"group_id"`
	GroupName          string `json:"group_name"`
	PredictionsTotal   int    `json:"predictions_total"`
	PredictionsSettled int    `json:"predictions_settled"`
}

// Summary is the cached per-group settlement view.
type Summary struct {
	GroupID            int       `json:"group_id"`
	Name               string    `json:"name"`
	Fixtures           int       `json:"fixtures"`
	PredictionsTotal   int       `json:"predictions_total"`
	PredictionsSettled int       `json:"predictions_settled"`
	PointsTotal        int       `json:"points_total"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// Engine recalculates prediction points from final scores. Settlement is
// value-idempotent: rerunning a fixture recomputes every affected prediction
// from scratch, so score corrections and rule changes replay cleanly.
type Engine struct {
	store Store
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewEngine creates a settlement engine. cache may be nil.
func NewEngine(store Store, c *cache.Cache, ttl time.Duration) *Engine {
	return &Engine{
		store: store,
		cache: c,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Resettle recomputes points for every prediction on every group fixture
// referencing the fixture, writing all of them in one transaction. The
// fixture must be finished with a final score; anything else is rejected
// without touching a row.
func (e *Engine) Resettle(ctx context.Context, fixtureID int) (*Result, error) {
	fixture, err := e.store.FixtureByID(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if !fixture.IsFinished() {
		return nil, &ValidationError{Msg: fmt.Sprintf("fixture %d is not finished (state %s)", fixtureID, fixture.State)}
	}
	if !fixture.HasFinalScore() {
		return nil, &ValidationError{Msg: fmt.Sprintf("fixture %d has no final score", fixtureID)}
	}

	finalHome := int(fixture.HomeGoals.Int32)
	finalAway := int(fixture.AwayGoals.Int32)

	details, err := e.store.GroupsForFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	settledAt := e.now()
	var updates []models.PointsUpdate
	groupIDs := make([]int, 0, len(details))

	for _, d := range details {
		predictions, err := e.store.PredictionsForGroupFixture(ctx, d.GroupFixture.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range predictions {
			updates = append(updates, models.PointsUpdate{
				PredictionID: p.ID,
				Points:       Points(&d.Group, p.PredictedHome, p.PredictedAway, finalHome, finalAway),
				SettledAt:    settledAt,
			})
		}
		groupIDs = append(groupIDs, d.Group.ID)
	}

	if err := e.store.WritePoints(ctx, updates); err != nil {
		return nil, err
	}

	e.invalidateSummaries(ctx, groupIDs)
	metrics.RecordSettlement(len(updates))

	log.Info().
		Int("fixture_id", fixtureID).
		Int("groups", len(details)).
		Int("predictions", len(updates)).
		Msg("Fixture settled")

	return &Result{
		FixtureID:               fixtureID,
		GroupsAffected:          len(details),
		PredictionsRecalculated: len(updates),
	}, nil
}

// Summarize reports, group by group, how far settlement has progressed for
// one fixture. Always computed live: it is the view operators check right
// after a resettle, so a stale cache would defeat the point.
func (e *Engine) Summarize(ctx context.Context, fixtureID int) (*FixtureSummary, error) {
	if _, err := e.store.FixtureByID(ctx, fixtureID); err != nil {
		return nil, err
	}

	details, err := e.store.GroupsForFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	summary := &FixtureSummary{
		FixtureID:   fixtureID,
		Groups:      make([]GroupSettlement, 0, len(details)),
		GeneratedAt: e.now(),
	}
	for _, d := range details {
		predictions, err := e.store.PredictionsForGroupFixture(ctx, d.GroupFixture.ID)
		if err != nil {
			return nil, err
		}
		gs := GroupSettlement{
			GroupID:          d.Group.ID,
			GroupName:        d.Group.Name,
			PredictionsTotal: len(predictions),
		}
		for _, p := range predictions {
			if p.PointsAwarded.Valid {
				gs.PredictionsSettled++
			}
		}
		summary.Groups = append(summary.Groups, gs)
	}

	return summary, nil
}

// GroupSummary returns the settlement summary of one group, served from cache
// when fresh.
func (e *Engine) GroupSummary(ctx context.Context, groupID int) (*Summary, error) {
	key := summaryKey(groupID)

	var cached Summary
	if ok, err := e.cache.Get(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Int("group_id", groupID).Msg("Summary cache read failed")
	} else if ok {
		return &cached, nil
	}

	group, err := e.store.GroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	fixtures, err := e.store.GroupFixturesForGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		GroupID:     group.ID,
		Name:        group.Name,
		Fixtures:    len(fixtures),
		GeneratedAt: e.now(),
	}
	for _, gf := range fixtures {
		predictions, err := e.store.PredictionsForGroupFixture(ctx, gf.ID)
		if err != nil {
			return nil, err
		}
		summary.PredictionsTotal += len(predictions)
		for _, p := range predictions {
			if p.PointsAwarded.Valid {
				summary.PredictionsSettled++
				summary.PointsTotal += int(p.PointsAwarded.Int32)
			}
		}
	}

	if err := e.cache.Set(ctx, key, summary, e.ttl); err != nil {
		log.Warn().Err(err).Int("group_id", groupID).Msg("Summary cache write failed")
	}

	return summary, nil
}

// invalidateSummaries drops cached summaries after a settlement pass. Cache
// trouble is logged and ignored; the TTL bounds staleness anyway.
func (e *Engine) invalidateSummaries(ctx context.Context, groupIDs []int) {
	if len(groupIDs) == 0 {
		return
	}
	keys := make([]string, len(groupIDs))
	for i, id := range groupIDs {
		keys[i] = summaryKey(id)
	}
	if err := e.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("Summary cache invalidation failed")
	}
}

func summaryKey(groupID int) string {
	return fmt.Sprintf("settlement:summary:%d", groupID)
}
