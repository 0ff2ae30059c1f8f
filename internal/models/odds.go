package models

import (
	"database/sql"
	"time"
)

// Bookmaker is a persisted sportsbook row.
type Bookmaker struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BookmakerRecord is the canonical shape for one provider bookmaker payload.
type BookmakerRecord struct {
	ExternalID string
	Name       string
}

// ToBookmaker converts a normalized record to the persisted model.
func (r *BookmakerRecord) ToBookmaker() *Bookmaker {
	return &Bookmaker{Name: r.Name}
}

// Market is a persisted betting market row (match winner, over/under, ...).
type Market struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MarketRecord is the canonical shape for one provider market payload.
type MarketRecord struct {
	ExternalID string
	Name       string
}

// ToMarket converts a normalized record to the persisted model.
func (r *MarketRecord) ToMarket() *Market {
	return &Market{Name: r.Name}
}

// Odds is one priced outcome for a fixture/bookmaker/market combination at a
// point in time. Rows are keyed on that combination plus the outcome label
// and overwritten on re-fetch; price history is out of scope here.
type Odds struct {
	ID          int             `db:"id"`
	FixtureID   int             `db:"fixture_id"`
	BookmakerID int             `db:"bookmaker_id"`
	MarketID    int             `db:"market_id"`
	Outcome     string          `db:"outcome"`
	Price       float64         `db:"price"`
	Handicap    sql.NullFloat64 `db:"handicap"`
	FetchedAt   time.Time       `db:"fetched_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// OddsRecord is the canonical shape for one priced outcome from the provider.
// The item key for batch tracking is Fixture/Bookmaker/Market/Outcome.
type OddsRecord struct {
	FixtureExternalID   string
	BookmakerExternalID string
	BookmakerName       string
	MarketExternalID    string
	MarketName          string
	Outcome             string
	Price               float64
	Handicap            *float64
}

// ToOdds converts a normalized record to the persisted model.
func (r *OddsRecord) ToOdds(fixtureID, bookmakerID, marketID int, fetchedAt time.Time) *Odds {
	o := &Odds{
		FixtureID:   fixtureID,
		BookmakerID: bookmakerID,
		MarketID:    marketID,
		Outcome:     r.Outcome,
		Price:       r.Price,
		FetchedAt:   fetchedAt,
	}
	if r.Handicap != nil {
		o.Handicap = sql.NullFloat64{Float64: *r.Handicap, Valid: true}
	}
	return o
}
