package scheduler

import (
	"context"
	"fmt"
	"time"

	"footypool/ingestion/internal/config"
	"footypool/ingestion/internal/jobs"
	"footypool/ingestion/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler fires registered jobs unattended:
// - reference data (countries, leagues, seasons, teams, bookmakers, markets)
//   on a nightly cron
// - fixtures, odds and settlement on their own polling tickers
// Every trigger goes through the job service, so locking, enabled checks and
// run bookkeeping apply the same as for manual triggers. A failed job never
// stops the loop.
type Scheduler struct {
	cfg           *config.Config
	service       *jobs.Service
	cron          *cron.Cron
	fixtureTicker *time.Ticker
	oddsTicker    *time.Ticker
	settleTicker  *time.Ticker
	stopChan      chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, service *jobs.Service) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		service:  service,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Nightly reference data refresh
	if _, err := s.cron.AddFunc(s.cfg.ReferenceSyncCron, func() {
		log.Info().Msg("Running reference data sync...")
		for _, key := range []string{
			jobs.JobSyncCountries,
			jobs.JobSyncLeagues,
			jobs.JobSyncSeasons,
			jobs.JobSyncTeams,
			jobs.JobSyncBookmakers,
			jobs.JobSyncMarkets,
		} {
			s.trigger(ctx, key)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reference sync: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.ReferenceSyncCron).
		Msg("Reference data sync scheduled")

	s.fixtureTicker = time.NewTicker(time.Duration(s.cfg.FixturePollSeconds) * time.Second)
	s.oddsTicker = time.NewTicker(time.Duration(s.cfg.OddsPollSeconds) * time.Second)
	s.settleTicker = time.NewTicker(time.Duration(s.cfg.SettlePollSeconds) * time.Second)

	go s.poll(ctx, s.fixtureTicker, jobs.JobSyncFixtures)
	go s.poll(ctx, s.oddsTicker, jobs.JobSyncOdds)
	go s.poll(ctx, s.settleTicker, jobs.JobSettleFinished)

	log.Info().
		Int("fixture_poll_seconds", s.cfg.FixturePollSeconds).
		Int("odds_poll_seconds", s.cfg.OddsPollSeconds).
		Int("settle_poll_seconds", s.cfg.SettlePollSeconds).
		Msg("Polling started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	for _, t := range []*time.Ticker{s.fixtureTicker, s.oddsTicker, s.settleTicker} {
		if t != nil {
			t.Stop()
		}
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// poll fires one job on every tick until shutdown.
func (s *Scheduler) poll(ctx context.Context, ticker *time.Ticker, key string) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("job", key).Msg("Context cancelled, stopping polling")
			return
		case <-s.stopChan:
			log.Info().Str("job", key).Msg("Stop signal received, stopping polling")
			return
		case <-ticker.C:
			s.trigger(ctx, key)
		}
	}
}

// trigger runs one job as an automatic trigger. Errors are already recorded
// in the run history; here they only get logged.
func (s *Scheduler) trigger(ctx context.Context, key string) {
	if err := s.service.RunJob(ctx, key, jobs.RunOptions{Trigger: models.TriggerAutomatic}); err != nil {
		log.Error().Err(err).Str("job", key).Msg("Scheduled job failed")
	}
}
