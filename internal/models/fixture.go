package models

import (
	"database/sql"
	"time"
)

// Fixture states as reported by the provider.
const (
	StateNotStarted  = "NS"
	StateFirstHalf   = "1H"
	StateHalftime    = "HT"
	StateSecondHalf  = "2H"
	StateExtraTime   = "ET"
	StateBreakTime   = "BT"
	StatePenalties   = "P"
	StateFullTime    = "FT"
	StateAfterExtra  = "AET"
	StateAfterPens   = "PEN"
	StateCanceled    = "CANC"
	StatePostponed   = "PST"
	StateAbandoned   = "ABD"
	StateInterrupted = "INT"
)

// Fixture is a persisted sporting event. League/season/team references are
// internal ids resolved through the mapping store at ingestion time. Score
// columns stay NULL until the provider reports them; a fixture becomes
// settlement-eligible exactly when its state enters a finished variant.
type Fixture struct {
	ID         int            `db:"id"`
	LeagueID   int            `db:"league_id"`
	SeasonID   int            `db:"season_id"`
	HomeTeamID int            `db:"home_team_id"`
	AwayTeamID int            `db:"away_team_id"`
	State      string         `db:"state"`
	StartsAt   time.Time      `db:"starts_at"`
	Round      sql.NullString `db:"round"`

	HomeGoals sql.NullInt32 `db:"home_goals"`
	AwayGoals sql.NullInt32 `db:"away_goals"`

	// Score breakdowns, NULL until known.
	HalftimeHome sql.NullInt32 `db:"halftime_home"`
	HalftimeAway sql.NullInt32 `db:"halftime_away"`
	FulltimeHome sql.NullInt32 `db:"fulltime_home"`
	FulltimeAway sql.NullInt32 `db:"fulltime_away"`
	ExtraHome    sql.NullInt32 `db:"extra_home"`
	ExtraAway    sql.NullInt32 `db:"extra_away"`
	PenaltyHome  sql.NullInt32 `db:"penalty_home"`
	PenaltyAway  sql.NullInt32 `db:"penalty_away"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsNotStarted reports whether the fixture has not kicked off.
func (f *Fixture) IsNotStarted() bool {
	return f.State == StateNotStarted || f.State == StatePostponed
}

// IsLive reports whether the fixture is currently being played.
func (f *Fixture) IsLive() bool {
	switch f.State {
	case StateFirstHalf, StateHalftime, StateSecondHalf, StateExtraTime, StateBreakTime, StatePenalties:
		return true
	}
	return false
}

// IsFinished reports whether the fixture reached a final result.
func (f *Fixture) IsFinished() bool {
	switch f.State {
	case StateFullTime, StateAfterExtra, StateAfterPens:
		return true
	}
	return false
}

// HasFinalScore reports whether both final goal counts are known.
func (f *Fixture) HasFinalScore() bool {
	return f.HomeGoals.Valid && f.AwayGoals.Valid
}

// FixtureRecord is the canonical shape for one provider fixture payload.
// Parent references carry provider ids; the pipeline resolves them.
type FixtureRecord struct {
	ExternalID         string
	LeagueExternalID   string
	SeasonExternalID   string
	HomeTeamExternalID string
	AwayTeamExternalID string
	State              string
	StartsAt           time.Time
	Round              string

	HomeGoals *int
	AwayGoals *int

	HalftimeHome *int
	HalftimeAway *int
	FulltimeHome *int
	FulltimeAway *int
	ExtraHome    *int
	ExtraAway    *int
	PenaltyHome  *int
	PenaltyAway  *int
}

// ToFixture converts a normalized record to the persisted model with resolved
// internal references.
func (r *FixtureRecord) ToFixture(leagueID, seasonID, homeTeamID, awayTeamID int) *Fixture {
	f := &Fixture{
		LeagueID:   leagueID,
		SeasonID:   seasonID,
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		State:      r.State,
		StartsAt:   r.StartsAt,
	}
	if r.Round != "" {
		f.Round = sql.NullString{String: r.Round, Valid: true}
	}
	f.HomeGoals = nullInt32(r.HomeGoals)
	f.AwayGoals = nullInt32(r.AwayGoals)
	f.HalftimeHome = nullInt32(r.HalftimeHome)
	f.HalftimeAway = nullInt32(r.HalftimeAway)
	f.FulltimeHome = nullInt32(r.FulltimeHome)
	f.FulltimeAway = nullInt32(r.FulltimeAway)
	f.ExtraHome = nullInt32(r.ExtraHome)
	f.ExtraAway = nullInt32(r.ExtraAway)
	f.PenaltyHome = nullInt32(r.PenaltyHome)
	f.PenaltyAway = nullInt32(r.PenaltyAway)
	return f
}

func nullInt32(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
