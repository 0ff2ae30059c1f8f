package repository

import (
	"context"
	"errors"
	"fmt"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// MappingRepository handles (entity_kind, external_id) -> internal_id
// associations. Mappings are created on first sighting and never deleted;
// the internal id is immutable once written.
type MappingRepository struct {
	db *Database
}

// CreateFn inserts the entity row for a not-yet-mapped external id and
// returns its internal id. It runs inside the same transaction as the
// mapping insert, so a failed mapping never leaves an orphaned entity.
type CreateFn func(ctx context.Context, tx pgx.Tx) (int, error)

// Resolve looks up the internal id for an external id. The second return
// value is false when no mapping exists.
func (r *MappingRepository) Resolve(ctx context.Context, kind models.EntityKind, externalID string) (int, bool, error) {
	query := `
		SELECT internal_id
		FROM external_mappings
		WHERE entity_kind = $1 AND external_id = $2
	`

	var internalID int
	err := r.db.Pool.QueryRow(ctx, query, kind, externalID).Scan(&internalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve mapping: %w", err)
	}

	return internalID, true, nil
}

// Ensure atomically resolves or creates a mapping. Under concurrent calls for
// the same pair the unique constraint on (entity_kind, external_id) decides a
// single winner; losers roll back their entity insert and adopt the winner's
// internal id.
func (r *MappingRepository) Ensure(ctx context.Context, kind models.EntityKind, externalID string, create CreateFn) (int, error) {
	// Fast path: already mapped.
	if id, ok, err := r.Resolve(ctx, kind, externalID); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}

	// Insert-or-fetch retry, not a global lock.
	for attempt := 0; attempt < 2; attempt++ {
		id, inserted, err := r.tryCreate(ctx, kind, externalID, create)
		if err != nil {
			return 0, err
		}
		if inserted {
			log.Debug().
				Str("kind", string(kind)).
				Str("external_id", externalID).
				Int("internal_id", id).
				Msg("Mapping created")
			return id, nil
		}

		// Lost the race; adopt the winner's mapping.
		if id, ok, err := r.Resolve(ctx, kind, externalID); err != nil {
			return 0, err
		} else if ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to ensure mapping for %s/%s", kind, externalID)
}

// tryCreate runs entity creation and mapping insertion in one transaction.
// inserted is false when another caller won the unique constraint first.
func (r *MappingRepository) tryCreate(ctx context.Context, kind models.EntityKind, externalID string, create CreateFn) (id int, inserted bool, err error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin mapping transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err = create(ctx, tx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create entity for mapping: %w", err)
	}

	query := `
		INSERT INTO external_mappings (entity_kind, external_id, internal_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_kind, external_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, query, kind, externalID, id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Conflict: roll back the entity insert too.
		return 0, false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit mapping transaction: %w", err)
	}

	return id, true, nil
}

// ListByKind returns all external ids mapped for a kind.
func (r *MappingRepository) ListByKind(ctx context.Context, kind models.EntityKind) ([]models.ExternalMapping, error) {
	query := `
		SELECT id, entity_kind, external_id, internal_id, created_at
		FROM external_mappings
		WHERE entity_kind = $1
		ORDER BY external_id
	`

	rows, err := r.db.Pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.ExternalMapping
	for rows.Next() {
		var m models.ExternalMapping
		if err := rows.Scan(&m.ID, &m.EntityKind, &m.ExternalID, &m.InternalID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}

	return mappings, nil
}

// StoredFingerprints returns external id -> comparable fingerprint for every
// stored, mapped entity of a kind. Reference kinds compare on name; fixtures
// compare on state plus final score. Used by the reconciliation reporter.
func (r *MappingRepository) StoredFingerprints(ctx context.Context, kind models.EntityKind) (map[string]string, error) {
	var query string
	switch kind {
	case models.KindCountry:
		query = `
			SELECT m.external_id, e.name
			FROM external_mappings m JOIN countries e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	case models.KindLeague:
		query = `
			SELECT m.external_id, e.name
			FROM external_mappings m JOIN leagues e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	case models.KindSeason:
		query = `
			SELECT m.external_id, e.year::text
			FROM external_mappings m JOIN seasons e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	case models.KindTeam:
		query = `
			SELECT m.external_id, e.name
			FROM external_mappings m JOIN teams e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	case models.KindBookmaker:
		query = `
			SELECT m.external_id, e.name
			FROM external_mappings m JOIN bookmakers e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	case models.KindMarket:
		query = `
			SELECT m.external_id, e.name
			FROM external_mappings m JOIN markets e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	case models.KindFixture:
		query = `
			SELECT m.external_id,
			       e.state || '|' || COALESCE(e.home_goals::text, '-') || ':' || COALESCE(e.away_goals::text, '-')
			FROM external_mappings m JOIN fixtures e ON e.id = m.internal_id
			WHERE m.entity_kind = $1
		`
	default:
		return nil, fmt.Errorf("unsupported entity kind: %s", kind)
	}

	rows, err := r.db.Pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]string)
	for rows.Next() {
		var externalID, fingerprint string
		if err := rows.Scan(&externalID, &fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints[externalID] = fingerprint
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fingerprints: %w", err)
	}

	return fingerprints, nil
}
