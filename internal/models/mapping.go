package models

import "time"

// EntityKind identifies the class of provider entity a mapping refers to.
type EntityKind string

const (
	KindCountry   EntityKind = "country"
	KindLeague    EntityKind = "league"
	KindSeason    EntityKind = "season"
	KindTeam      EntityKind = "team"
	KindFixture   EntityKind = "fixture"
	KindBookmaker EntityKind = "bookmaker"
	KindMarket    EntityKind = "market"
)

// ExternalMapping associates a provider-assigned id with an internal row id.
// A mapping is created the first time an external id is seen and is never
// deleted; InternalID is immutable once written. Re-seeding an already-mapped
// external id updates the mapped entity, never creates a second mapping.
type ExternalMapping struct {
	ID         int        `db:"id"`
	EntityKind EntityKind `db:"entity_kind"`
	ExternalID string     `db:"external_id"`
	InternalID int        `db:"internal_id"`
	CreatedAt  time.Time  `db:"created_at"`
}
