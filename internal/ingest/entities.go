package ingest

import (
	"context"
	"fmt"
	"time"

	"footypool/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// SyncCountries upserts country records as one batch.
func (p *Pipeline) SyncCountries(ctx context.Context, records []models.CountryRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("country record missing external id")
		case rec.Name == "":
			it.err = fmt.Errorf("country %s missing name", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				return p.upsertCountry(ctx, &rec)
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "countries", items, opts)
}

// SyncLeagues upserts league records as one batch. Unknown parent countries
// are created as name-only placeholders and filled in by the next country
// sync.
func (p *Pipeline) SyncLeagues(ctx context.Context, records []models.LeagueRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("league record missing external id")
		case rec.Name == "":
			it.err = fmt.Errorf("league %s missing name", rec.ExternalID)
		case rec.CountryExternalID == "":
			it.err = fmt.Errorf("league %s missing country reference", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				countryID, err := p.ensureCountry(ctx, rec.CountryExternalID)
				if err != nil {
					return err
				}
				league := rec.ToLeague(countryID)
				if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindLeague, rec.ExternalID); err != nil {
					return err
				} else if ok {
					return p.db.Leagues.Update(ctx, id, league)
				}
				_, err = p.db.Mappings.Ensure(ctx, models.KindLeague, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
					return p.db.Leagues.Insert(ctx, tx, league)
				})
				return err
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "leagues", items, opts)
}

// SyncSeasons upserts season records as one batch. The parent league must
// already be mapped; seasons carry no league detail to placeholder from.
func (p *Pipeline) SyncSeasons(ctx context.Context, records []models.SeasonRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("season record missing external id")
		case rec.LeagueExternalID == "":
			it.err = fmt.Errorf("season %s missing league reference", rec.ExternalID)
		case rec.Year == 0:
			it.err = fmt.Errorf("season %s missing year", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				leagueID, ok, err := p.db.Mappings.Resolve(ctx, models.KindLeague, rec.LeagueExternalID)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("league %s not mapped, sync leagues first", rec.LeagueExternalID)
				}
				season := rec.ToSeason(leagueID)
				if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindSeason, rec.ExternalID); err != nil {
					return err
				} else if ok {
					return p.db.Leagues.UpdateSeason(ctx, id, season)
				}
				_, err = p.db.Mappings.Ensure(ctx, models.KindSeason, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
					return p.db.Leagues.InsertSeason(ctx, tx, season)
				})
				return err
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "seasons", items, opts)
}

// SyncTeams upserts team records as one batch.
func (p *Pipeline) SyncTeams(ctx context.Context, records []models.TeamRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("team record missing external id")
		case rec.Name == "":
			it.err = fmt.Errorf("team %s missing name", rec.ExternalID)
		case rec.CountryExternalID == "":
			it.err = fmt.Errorf("team %s missing country reference", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				countryID, err := p.ensureCountry(ctx, rec.CountryExternalID)
				if err != nil {
					return err
				}
				team := rec.ToTeam(countryID)
				if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindTeam, rec.ExternalID); err != nil {
					return err
				} else if ok {
					return p.db.Teams.Update(ctx, id, team)
				}
				_, err = p.db.Mappings.Ensure(ctx, models.KindTeam, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
					return p.db.Teams.Insert(ctx, tx, team)
				})
				return err
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "teams", items, opts)
}

// SyncBookmakers upserts bookmaker records as one batch.
func (p *Pipeline) SyncBookmakers(ctx context.Context, records []models.BookmakerRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("bookmaker record missing external id")
		case rec.Name == "":
			it.err = fmt.Errorf("bookmaker %s missing name", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				bookmaker := rec.ToBookmaker()
				if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindBookmaker, rec.ExternalID); err != nil {
					return err
				} else if ok {
					return p.db.Odds.UpdateBookmaker(ctx, id, bookmaker)
				}
				_, err := p.db.Mappings.Ensure(ctx, models.KindBookmaker, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
					return p.db.Odds.InsertBookmaker(ctx, tx, bookmaker)
				})
				return err
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "bookmakers", items, opts)
}

// SyncMarkets upserts betting market records as one batch.
func (p *Pipeline) SyncMarkets(ctx context.Context, records []models.MarketRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("market record missing external id")
		case rec.Name == "":
			it.err = fmt.Errorf("market %s missing name", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				market := rec.ToMarket()
				if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindMarket, rec.ExternalID); err != nil {
					return err
				} else if ok {
					return p.db.Odds.UpdateMarket(ctx, id, market)
				}
				_, err := p.db.Mappings.Ensure(ctx, models.KindMarket, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
					return p.db.Odds.InsertMarket(ctx, tx, market)
				})
				return err
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "markets", items, opts)
}

// SyncFixtures upserts fixture records as one batch. All four parent
// references must already be mapped; a fixture against an unknown league,
// season or team fails as an item and is retried on the next poll, after the
// reference syncs have caught up.
func (p *Pipeline) SyncFixtures(ctx context.Context, records []models.FixtureRecord, opts Options) (*Result, error) {
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: rec.ExternalID}
		switch {
		case rec.ExternalID == "":
			it.err = fmt.Errorf("fixture record missing external id")
		case rec.State == "":
			it.err = fmt.Errorf("fixture %s missing state", rec.ExternalID)
		case rec.StartsAt.IsZero():
			it.err = fmt.Errorf("fixture %s missing kickoff time", rec.ExternalID)
		default:
			it.apply = func(ctx context.Context) error {
				return p.upsertFixture(ctx, &rec)
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "fixtures", items, opts)
}

// SyncOdds upserts priced outcomes as one batch. Odds rows reference a
// fixture, a bookmaker and a market; the fixture must be mapped already while
// bookmakers and markets are placeholdered from the payload when unknown.
func (p *Pipeline) SyncOdds(ctx context.Context, records []models.OddsRecord, opts Options) (*Result, error) {
	fetchedAt := time.Now().UTC()
	items := make([]item, 0, len(records))
	for _, rec := range records {
		rec := rec
		it := item{key: oddsKey(&rec)}
		switch {
		case rec.FixtureExternalID == "":
			it.err = fmt.Errorf("odds record missing fixture reference")
		case rec.BookmakerExternalID == "":
			it.err = fmt.Errorf("odds record for fixture %s missing bookmaker reference", rec.FixtureExternalID)
		case rec.MarketExternalID == "":
			it.err = fmt.Errorf("odds record for fixture %s missing market reference", rec.FixtureExternalID)
		case rec.Outcome == "":
			it.err = fmt.Errorf("odds record for fixture %s missing outcome", rec.FixtureExternalID)
		case rec.Price <= 0:
			it.err = fmt.Errorf("odds record %s has non-positive price", oddsKey(&rec))
		default:
			it.apply = func(ctx context.Context) error {
				return p.upsertOdds(ctx, &rec, fetchedAt)
			}
		}
		items = append(items, it)
	}
	return p.run(ctx, "odds", items, opts)
}

// oddsKey builds the batch item key for one priced outcome.
func oddsKey(rec *models.OddsRecord) string {
	return fmt.Sprintf("%s/%s/%s/%s", rec.FixtureExternalID, rec.BookmakerExternalID, rec.MarketExternalID, rec.Outcome)
}

func (p *Pipeline) upsertCountry(ctx context.Context, rec *models.CountryRecord) error {
	country := rec.ToCountry()
	if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindCountry, rec.ExternalID); err != nil {
		return err
	} else if ok {
		return p.db.Countries.Update(ctx, id, country)
	}
	_, err := p.db.Mappings.Ensure(ctx, models.KindCountry, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return p.db.Countries.Insert(ctx, tx, country)
	})
	return err
}

func (p *Pipeline) upsertFixture(ctx context.Context, rec *models.FixtureRecord) error {
	leagueID, err := p.requireMapping(ctx, models.KindLeague, rec.LeagueExternalID)
	if err != nil {
		return err
	}
	seasonID, err := p.requireMapping(ctx, models.KindSeason, rec.SeasonExternalID)
	if err != nil {
		return err
	}
	homeID, err := p.requireMapping(ctx, models.KindTeam, rec.HomeTeamExternalID)
	if err != nil {
		return err
	}
	awayID, err := p.requireMapping(ctx, models.KindTeam, rec.AwayTeamExternalID)
	if err != nil {
		return err
	}

	fixture := rec.ToFixture(leagueID, seasonID, homeID, awayID)
	if id, ok, err := p.db.Mappings.Resolve(ctx, models.KindFixture, rec.ExternalID); err != nil {
		return err
	} else if ok {
		return p.db.Fixtures.Update(ctx, id, fixture)
	}
	_, err = p.db.Mappings.Ensure(ctx, models.KindFixture, rec.ExternalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return p.db.Fixtures.Insert(ctx, tx, fixture)
	})
	return err
}

func (p *Pipeline) upsertOdds(ctx context.Context, rec *models.OddsRecord, fetchedAt time.Time) error {
	fixtureID, err := p.requireMapping(ctx, models.KindFixture, rec.FixtureExternalID)
	if err != nil {
		return err
	}
	bookmakerID, err := p.ensureBookmaker(ctx, rec.BookmakerExternalID, rec.BookmakerName)
	if err != nil {
		return err
	}
	marketID, err := p.ensureMarket(ctx, rec.MarketExternalID, rec.MarketName)
	if err != nil {
		return err
	}
	return p.db.Odds.UpsertOdds(ctx, rec.ToOdds(fixtureID, bookmakerID, marketID, fetchedAt))
}

// requireMapping resolves an already-established mapping and fails with an
// actionable message when it is absent.
func (p *Pipeline) requireMapping(ctx context.Context, kind models.EntityKind, externalID string) (int, error) {
	if externalID == "" {
		return 0, fmt.Errorf("missing %s reference", kind)
	}
	id, ok, err := p.db.Mappings.Resolve(ctx, kind, externalID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s %s not mapped, sync %ss first", kind, externalID, kind)
	}
	return id, nil
}

// ensureCountry resolves or creates a country mapping. When the country has
// never been synced, a placeholder row named after the external id is created
// so dependent entities never block; the next country sync overwrites it.
func (p *Pipeline) ensureCountry(ctx context.Context, externalID string) (int, error) {
	return p.db.Mappings.Ensure(ctx, models.KindCountry, externalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return p.db.Countries.Insert(ctx, tx, &models.Country{Name: externalID})
	})
}

func (p *Pipeline) ensureBookmaker(ctx context.Context, externalID, name string) (int, error) {
	if name == "" {
		name = "bookmaker " + externalID
	}
	return p.db.Mappings.Ensure(ctx, models.KindBookmaker, externalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return p.db.Odds.InsertBookmaker(ctx, tx, &models.Bookmaker{Name: name})
	})
}

func (p *Pipeline) ensureMarket(ctx context.Context, externalID, name string) (int, error) {
	if name == "" {
		name = "market " + externalID
	}
	return p.db.Mappings.Ensure(ctx, models.KindMarket, externalID, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return p.db.Odds.InsertMarket(ctx, tx, &models.Market{Name: name})
	})
}
