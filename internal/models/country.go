package models

import (
	"database/sql"
	"time"
)

// Country is a persisted country row.
type Country struct {
	ID        int            `db:"id"`
	Name      string         `db:"name"`
	Code      sql.NullString `db:"code"`
	FlagURL   sql.NullString `db:"flag_url"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// CountryRecord is the canonical provider-independent shape the provider
// adapter normalizes country payloads into.
type CountryRecord struct {
	ExternalID string
	Name       string
	Code       string
	FlagURL    string
}

// ToCountry converts a normalized record to the persisted model.
func (r *CountryRecord) ToCountry() *Country {
	c := &Country{Name: r.Name}
	if r.Code != "" {
		c.Code = sql.NullString{String: r.Code, Valid: true}
	}
	if r.FlagURL != "" {
		c.FlagURL = sql.NullString{String: r.FlagURL, Valid: true}
	}
	return c
}
