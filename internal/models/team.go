package models

import (
	"database/sql"
	"time"
)

// Team is a persisted club row.
type Team struct {
	ID        int            `db:"id"`
	Name      string         `db:"name"`
	Code      sql.NullString `db:"code"`
	Founded   sql.NullInt32  `db:"founded"`
	LogoURL   sql.NullString `db:"logo_url"`
	VenueName sql.NullString `db:"venue_name"`
	CountryID int            `db:"country_id"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// TeamRecord is the canonical shape for one provider team payload.
// CountryExternalID is resolved to an internal id by the pipeline.
type TeamRecord struct {
	ExternalID        string
	Name              string
	Code              string
	Founded           int
	LogoURL           string
	VenueName         string
	CountryExternalID string
}

// ToTeam converts a normalized record to the persisted model.
func (r *TeamRecord) ToTeam(countryID int) *Team {
	t := &Team{Name: r.Name, CountryID: countryID}
	if r.Code != "" {
		t.Code = sql.NullString{String: r.Code, Valid: true}
	}
	if r.Founded > 0 {
		t.Founded = sql.NullInt32{Int32: int32(r.Founded), Valid: true}
	}
	if r.LogoURL != "" {
		t.LogoURL = sql.NullString{String: r.LogoURL, Valid: true}
	}
	if r.VenueName != "" {
		t.VenueName = sql.NullString{String: r.VenueName, Valid: true}
	}
	return t
}
