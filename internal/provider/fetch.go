package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"footypool/ingestion/internal/models"
)

// Wire types below mirror the provider's JSON; they never leave this package.

type countryWire struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

type leagueWire struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Logo string `json:"logo"`
	} `json:"league"`
	Country struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"country"`
	Seasons []struct {
		Year    int    `json:"year"`
		Start   string `json:"start"`
		End     string `json:"end"`
		Current bool   `json:"current"`
	} `json:"seasons"`
}

type teamWire struct {
	Team struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
		Founded int    `json:"founded"`
		Logo    string `json:"logo"`
	} `json:"team"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
}

type fixtureWire struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int    `json:"id"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home struct {
			ID int `json:"id"`
		} `json:"home"`
		Away struct {
			ID int `json:"id"`
		} `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
	Score struct {
		Halftime  scorePairWire `json:"halftime"`
		Fulltime  scorePairWire `json:"fulltime"`
		Extratime scorePairWire `json:"extratime"`
		Penalty   scorePairWire `json:"penalty"`
	} `json:"score"`
}

type scorePairWire struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type bookmakerWire struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type oddsWire struct {
	Fixture struct {
		ID int `json:"id"`
	} `json:"fixture"`
	Bookmakers []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Bets []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Values []struct {
				Value    string  `json:"value"`
				Odd      string  `json:"odd"`
				Handicap *string `json:"handicap"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

// countryExternalID prefers the ISO code; some provider rows carry only a
// name ("World").
func countryExternalID(code, name string) string {
	if code != "" {
		return code
	}
	return name
}

// seasonExternalID composes a stable provider-side id for a league season,
// which the provider itself only identifies by (league, year).
func seasonExternalID(leagueID int, year int) string {
	return fmt.Sprintf("%d:%d", leagueID, year)
}

// FetchCountries fetches all countries.
func (c *Client) FetchCountries(ctx context.Context) ([]models.CountryRecord, error) {
	var wire []countryWire
	if err := c.getEnvelope(ctx, "countries", nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}

	records := make([]models.CountryRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, models.CountryRecord{
			ExternalID: countryExternalID(w.Code, w.Name),
			Name:       w.Name,
			Code:       w.Code,
			FlagURL:    w.Flag,
		})
	}
	return records, nil
}

// FetchLeagues fetches leagues, optionally filtered by country.
func (c *Client) FetchLeagues(ctx context.Context, opts *Options) ([]models.LeagueRecord, error) {
	var wire []leagueWire
	if err := c.getEnvelope(ctx, "leagues", opts.params(), &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch leagues: %w", err)
	}

	records := make([]models.LeagueRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, models.LeagueRecord{
			ExternalID:        strconv.Itoa(w.League.ID),
			Name:              w.League.Name,
			Type:              w.League.Type,
			LogoURL:           w.League.Logo,
			CountryExternalID: countryExternalID(w.Country.Code, w.Country.Name),
		})
	}
	return records, nil
}

// FetchSeasons fetches league seasons, optionally filtered by league. The
// provider nests seasons under leagues; this flattens them.
func (c *Client) FetchSeasons(ctx context.Context, opts *Options) ([]models.SeasonRecord, error) {
	var wire []leagueWire
	if err := c.getEnvelope(ctx, "leagues", opts.params(), &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch seasons: %w", err)
	}

	var records []models.SeasonRecord
	for _, w := range wire {
		for _, s := range w.Seasons {
			rec := models.SeasonRecord{
				ExternalID:       seasonExternalID(w.League.ID, s.Year),
				LeagueExternalID: strconv.Itoa(w.League.ID),
				Year:             s.Year,
				Current:          s.Current,
			}
			if t, err := time.Parse("2006-01-02", s.Start); err == nil {
				rec.StartDate = t
			}
			if t, err := time.Parse("2006-01-02", s.End); err == nil {
				rec.EndDate = t
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// FetchTeams fetches teams for a league season.
func (c *Client) FetchTeams(ctx context.Context, opts *Options) ([]models.TeamRecord, error) {
	var wire []teamWire
	if err := c.getEnvelope(ctx, "teams", opts.params(), &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}

	records := make([]models.TeamRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, models.TeamRecord{
			ExternalID:        strconv.Itoa(w.Team.ID),
			Name:              w.Team.Name,
			Code:              w.Team.Code,
			Founded:           w.Team.Founded,
			LogoURL:           w.Team.Logo,
			VenueName:         w.Venue.Name,
			CountryExternalID: w.Team.Country,
		})
	}
	return records, nil
}

// FetchFixturesBetween fetches fixtures kicking off inside [from, to].
func (c *Client) FetchFixturesBetween(ctx context.Context, from, to time.Time, opts *Options) ([]models.FixtureRecord, error) {
	params := opts.params()
	params["from"] = from.Format("2006-01-02")
	params["to"] = to.Format("2006-01-02")

	var wire []fixtureWire
	if err := c.getEnvelope(ctx, "fixtures", params, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	records := make([]models.FixtureRecord, 0, len(wire))
	for _, w := range wire {
		rec := models.FixtureRecord{
			ExternalID:         strconv.Itoa(w.Fixture.ID),
			LeagueExternalID:   strconv.Itoa(w.League.ID),
			SeasonExternalID:   seasonExternalID(w.League.ID, w.League.Season),
			HomeTeamExternalID: strconv.Itoa(w.Teams.Home.ID),
			AwayTeamExternalID: strconv.Itoa(w.Teams.Away.ID),
			State:              w.Fixture.Status.Short,
			Round:              w.League.Round,
			HomeGoals:          w.Goals.Home,
			AwayGoals:          w.Goals.Away,
			HalftimeHome:       w.Score.Halftime.Home,
			HalftimeAway:       w.Score.Halftime.Away,
			FulltimeHome:       w.Score.Fulltime.Home,
			FulltimeAway:       w.Score.Fulltime.Away,
			ExtraHome:          w.Score.Extratime.Home,
			ExtraAway:          w.Score.Extratime.Away,
			PenaltyHome:        w.Score.Penalty.Home,
			PenaltyAway:        w.Score.Penalty.Away,
		}
		if t, err := time.Parse(time.RFC3339, w.Fixture.Date); err == nil {
			rec.StartsAt = t
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchBookmakers fetches the bookmaker catalog.
func (c *Client) FetchBookmakers(ctx context.Context) ([]models.BookmakerRecord, error) {
	var wire []bookmakerWire
	if err := c.getEnvelope(ctx, "odds/bookmakers", nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch bookmakers: %w", err)
	}

	records := make([]models.BookmakerRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, models.BookmakerRecord{
			ExternalID: strconv.Itoa(w.ID),
			Name:       w.Name,
		})
	}
	return records, nil
}

// FetchMarkets fetches the betting market catalog.
func (c *Client) FetchMarkets(ctx context.Context) ([]models.MarketRecord, error) {
	var wire []bookmakerWire
	if err := c.getEnvelope(ctx, "odds/bets", nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}

	records := make([]models.MarketRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, models.MarketRecord{
			ExternalID: strconv.Itoa(w.ID),
			Name:       w.Name,
		})
	}
	return records, nil
}

// FetchOddsBetween fetches priced outcomes for fixtures inside [from, to].
// The provider nests outcomes three levels deep; this flattens one row per
// fixture/bookmaker/market/outcome.
func (c *Client) FetchOddsBetween(ctx context.Context, from, to time.Time, opts *Options) ([]models.OddsRecord, error) {
	params := opts.params()
	params["from"] = from.Format("2006-01-02")
	params["to"] = to.Format("2006-01-02")

	var wire []oddsWire
	if err := c.getEnvelope(ctx, "odds", params, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch odds: %w", err)
	}

	var records []models.OddsRecord
	for _, w := range wire {
		fixtureID := strconv.Itoa(w.Fixture.ID)
		for _, bm := range w.Bookmakers {
			for _, bet := range bm.Bets {
				for _, v := range bet.Values {
					price, err := strconv.ParseFloat(v.Odd, 64)
					if err != nil {
						continue
					}
					rec := models.OddsRecord{
						FixtureExternalID:   fixtureID,
						BookmakerExternalID: strconv.Itoa(bm.ID),
						BookmakerName:       bm.Name,
						MarketExternalID:    strconv.Itoa(bet.ID),
						MarketName:          bet.Name,
						Outcome:             v.Value,
						Price:               price,
					}
					if v.Handicap != nil {
						if h, err := strconv.ParseFloat(*v.Handicap, 64); err == nil {
							rec.Handicap = &h
						}
					}
					records = append(records, rec)
				}
			}
		}
	}
	return records, nil
}
