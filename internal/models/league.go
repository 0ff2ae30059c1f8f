package models

import (
	"database/sql"
	"time"
)

// League is a persisted competition row. CountryID references the internal
// country id resolved through the mapping store at ingestion time.
type League struct {
	ID        int            `db:"id"`
	Name      string         `db:"name"`
	Type      sql.NullString `db:"type"`
	LogoURL   sql.NullString `db:"logo_url"`
	CountryID int            `db:"country_id"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// LeagueRecord is the canonical shape for one provider league payload.
// CountryExternalID is the provider id of the parent country; the pipeline
// resolves it to an internal id before upserting.
type LeagueRecord struct {
	ExternalID        string
	Name              string
	Type              string
	LogoURL           string
	CountryExternalID string
}

// ToLeague converts a normalized record to the persisted model.
func (r *LeagueRecord) ToLeague(countryID int) *League {
	l := &League{Name: r.Name, CountryID: countryID}
	if r.Type != "" {
		l.Type = sql.NullString{String: r.Type, Valid: true}
	}
	if r.LogoURL != "" {
		l.LogoURL = sql.NullString{String: r.LogoURL, Valid: true}
	}
	return l
}

// Season is one year of a league.
type Season struct {
	ID        int          `db:"id"`
	LeagueID  int          `db:"league_id"`
	Year      int          `db:"year"`
	StartDate sql.NullTime `db:"start_date"`
	EndDate   sql.NullTime `db:"end_date"`
	Current   bool         `db:"current"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// SeasonRecord is the canonical shape for one provider season payload.
type SeasonRecord struct {
	ExternalID       string
	LeagueExternalID string
	Year             int
	StartDate        time.Time
	EndDate          time.Time
	Current          bool
}

// ToSeason converts a normalized record to the persisted model.
func (r *SeasonRecord) ToSeason(leagueID int) *Season {
	s := &Season{LeagueID: leagueID, Year: r.Year, Current: r.Current}
	if !r.StartDate.IsZero() {
		s.StartDate = sql.NullTime{Time: r.StartDate, Valid: true}
	}
	if !r.EndDate.IsZero() {
		s.EndDate = sql.NullTime{Time: r.EndDate, Valid: true}
	}
	return s
}
