package jobs

import (
	"context"
	"time"

	"footypool/ingestion/internal/config"
	"footypool/ingestion/internal/ingest"
	"footypool/ingestion/internal/provider"
	"footypool/ingestion/internal/repository"
	"footypool/ingestion/internal/settle"

	"github.com/rs/zerolog/log"
)

// Job keys. Stable identifiers: they key the jobs table, run history and
// operator tooling, so they never change meaning.
const (
	JobSyncCountries  = "sync-countries"
	JobSyncLeagues    = "sync-leagues"
	JobSyncSeasons    = "sync-seasons"
	JobSyncTeams      = "sync-teams"
	JobSyncBookmakers = "sync-bookmakers"
	JobSyncMarkets    = "sync-markets"
	JobSyncFixtures   = "sync-fixtures"
	JobSyncOdds       = "sync-odds"
	JobSettleFinished = "settle-finished"
)

// settleBatchLimit bounds how many fixtures one settle-finished run picks up.
const settleBatchLimit = 100

// Deps carries everything job handlers reach into.
type Deps struct {
	Config   *config.Config
	Provider *provider.Client
	Pipeline *ingest.Pipeline
	Engine   *settle.Engine
	DB       *repository.Database
}

// Definitions returns the full job registry in dependency order: reference
// data first, then fixtures, then odds, then settlement. RunAll relies on
// this order.
func Definitions(d Deps) []Definition {
	return []Definition{
		{
			Key:         JobSyncCountries,
			Description: "Sync countries from the football data provider",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				records, err := d.Provider.FetchCountries(ctx)
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncCountries(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncLeagues,
			Description: "Sync leagues from the football data provider",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				records, err := d.Provider.FetchLeagues(ctx, d.fetchOptions())
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncLeagues(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncSeasons,
			Description: "Sync seasons from the football data provider",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				records, err := d.Provider.FetchSeasons(ctx, d.fetchOptions())
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncSeasons(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncTeams,
			Description: "Sync teams from the football data provider",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				records, err := d.Provider.FetchTeams(ctx, d.fetchOptions())
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncTeams(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncBookmakers,
			Description: "Sync bookmakers from the football data provider",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				records, err := d.Provider.FetchBookmakers(ctx)
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncBookmakers(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncMarkets,
			Description: "Sync betting markets from the football data provider",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				records, err := d.Provider.FetchMarkets(ctx)
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncMarkets(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncFixtures,
			Description: "Sync fixtures and scores inside the configured window",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				from, to := d.fixtureWindow()
				records, err := d.Provider.FetchFixturesBetween(ctx, from, to, d.fetchOptions())
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncFixtures(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSyncOdds,
			Description: "Sync pre-match odds for fixtures inside the configured window",
			Handler:     d.syncHandler(func(ctx context.Context, opts RunOptions) (*ingest.Result, error) {
				from, to := d.fixtureWindow()
				records, err := d.Provider.FetchOddsBetween(ctx, from, to, d.fetchOptions())
				if err != nil {
					return nil, err
				}
				return d.Pipeline.SyncOdds(ctx, records, ingestOptions(opts))
			}),
		},
		{
			Key:         JobSettleFinished,
			Description: "Settle predictions for finished fixtures with final scores",
			Handler:     d.settleFinished,
		},
	}
}

// syncHandler wraps a provider-backed sync with the shared precondition: no
// credentials means skipped, not failed.
func (d Deps) syncHandler(sync func(ctx context.Context, opts RunOptions) (*ingest.Result, error)) Handler {
	return func(ctx context.Context, opts RunOptions) (*Outcome, error) {
		if !d.Config.HasProviderCredentials() {
			return nil, &SkipError{Reason: "provider credentials not configured"}
		}

		res, err := sync(ctx, opts)
		if err != nil {
			return nil, err
		}

		return &Outcome{
			RowsAffected: res.OK,
			Meta: map[string]any{
				"batch_id": res.BatchID,
				"total":    res.Total,
				"ok":       res.OK,
				"fail":     res.Fail,
			},
		}, nil
	}
}

// settleFinished settles every finished fixture that still has unsettled
// predictions. One bad fixture never blocks the rest of the pass. Needs no
// provider credentials; it works entirely from stored data.
func (d Deps) settleFinished(ctx context.Context, opts RunOptions) (*Outcome, error) {
	fixtures, err := d.DB.Fixtures.ListFinishedUnsettled(ctx, settleBatchLimit)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return &Outcome{Meta: map[string]any{"eligible_fixtures": len(fixtures)}}, nil
	}

	settledFixtures := 0
	predictions := 0
	failures := 0
	for _, fixture := range fixtures {
		res, err := d.Engine.Resettle(ctx, fixture.ID)
		if err != nil {
			failures++
			log.Error().Err(err).Int("fixture_id", fixture.ID).Msg("Settlement failed for fixture")
			continue
		}
		settledFixtures++
		predictions += res.PredictionsRecalculated
	}

	return &Outcome{
		RowsAffected: predictions,
		Meta: map[string]any{
			"fixtures_settled": settledFixtures,
			"failures":         failures,
		},
	}, nil
}

// fetchOptions narrows provider fetches to the configured league, if any.
func (d Deps) fetchOptions() *provider.Options {
	if d.Config.ProviderLeagueFilter == "" {
		return nil
	}
	return &provider.Options{League: d.Config.ProviderLeagueFilter}
}

// fixtureWindow is the polling window around now.
func (d Deps) fixtureWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -d.Config.FixtureLookbackDays)
	to := now.AddDate(0, 0, d.Config.FixtureLookaheadDays)
	return from, to
}

func ingestOptions(opts RunOptions) ingest.Options {
	return ingest.Options{
		Trigger:     opts.Trigger,
		TriggeredBy: opts.TriggeredBy,
		DryRun:      opts.DryRun,
	}
}
