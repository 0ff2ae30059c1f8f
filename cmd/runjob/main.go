// Command runjob is the operator CLI: trigger ingestion jobs by key, run the
// whole registry, resettle a fixture, print settlement summaries or diff
// stored data against the provider. Manual triggers execute even for
// disabled jobs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"footypool/ingestion/internal/cache"
	"footypool/ingestion/internal/config"
	"footypool/ingestion/internal/ingest"
	"footypool/ingestion/internal/jobs"
	"footypool/ingestion/internal/models"
	"footypool/ingestion/internal/provider"
	"footypool/ingestion/internal/recon"
	"footypool/ingestion/internal/repository"
	"footypool/ingestion/internal/settle"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		jobKey     = flag.String("job", "", "job key to run (see -list)")
		runAll     = flag.Bool("all", false, "run every registered job in order")
		list       = flag.Bool("list", false, "list registered job keys")
		dryRun     = flag.Bool("dry-run", false, "normalize and count without writing")
		by         = flag.String("by", defaultOperator(), "who triggered this run")
		resettle   = flag.Int("resettle", 0, "fixture id to resettle")
		summary    = flag.Int("summary", 0, "fixture id to print a settlement summary for")
		groupSum   = flag.Int("group-summary", 0, "group id to print a settlement summary for")
		diffKind   = flag.String("diff", "", "entity kind to diff against the provider (country, league, season, team, fixture, bookmaker, market)")
		enableJob  = flag.String("enable", "", "job key to enable")
		disableJob = flag.String("disable", "", "job key to disable")
		windowDays = flag.Int("window-days", 7, "days around now for a fixture diff")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)

	redisCache, err := cache.New(ctx, cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	engine := settle.NewEngine(settle.NewStore(db), redisCache, cfg.SummaryCacheTTL)
	service := jobs.NewService(jobs.NewRunner(db.Jobs), jobs.Definitions(jobs.Deps{
		Config:   cfg,
		Provider: providerClient,
		Pipeline: ingest.NewPipeline(db),
		Engine:   engine,
		DB:       db,
	}))

	opts := jobs.RunOptions{
		Trigger:     models.TriggerManual,
		TriggeredBy: *by,
		DryRun:      *dryRun,
	}

	switch {
	case *list:
		for _, key := range service.Keys() {
			fmt.Println(key)
		}
	case *enableJob != "":
		if err := db.Jobs.SetEnabled(ctx, *enableJob, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to enable job")
		}
		log.Info().Str("job", *enableJob).Msg("Job enabled")
	case *disableJob != "":
		if err := db.Jobs.SetEnabled(ctx, *disableJob, false); err != nil {
			log.Fatal().Err(err).Msg("Failed to disable job")
		}
		log.Info().Str("job", *disableJob).Msg("Job disabled")
	case *resettle > 0:
		res, err := engine.Resettle(ctx, *resettle)
		if err != nil {
			log.Fatal().Err(err).Int("fixture_id", *resettle).Msg("Settlement failed")
		}
		printJSON(res)
	case *summary > 0:
		sum, err := engine.Summarize(ctx, *summary)
		if err != nil {
			log.Fatal().Err(err).Int("fixture_id", *summary).Msg("Summary failed")
		}
		printJSON(sum)
	case *groupSum > 0:
		sum, err := engine.GroupSummary(ctx, *groupSum)
		if err != nil {
			log.Fatal().Err(err).Int("group_id", *groupSum).Msg("Group summary failed")
		}
		printJSON(sum)
	case *diffKind != "":
		runDiff(ctx, providerClient, db, cfg, *diffKind, *windowDays)
	case *runAll:
		if err := service.RunAll(ctx, opts); err != nil {
			log.Fatal().Err(err).Msg("Run finished with failures")
		}
	case *jobKey != "":
		if err := service.RunJob(ctx, *jobKey, opts); err != nil {
			log.Fatal().Err(err).Str("job", *jobKey).Msg("Job failed")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runDiff(ctx context.Context, providerClient *provider.Client, db *repository.Database, cfg *config.Config, kind string, windowDays int) {
	reporter := recon.NewReporter(providerClient, db)

	diffOpts := recon.DiffOptions{}
	if cfg.ProviderLeagueFilter != "" {
		diffOpts.Fetch = &provider.Options{League: cfg.ProviderLeagueFilter}
	}
	if models.EntityKind(kind) == models.KindFixture {
		now := time.Now().UTC()
		diffOpts.From = now.AddDate(0, 0, -windowDays)
		diffOpts.To = now.AddDate(0, 0, windowDays)
	}

	report, err := reporter.Diff(ctx, models.EntityKind(kind), diffOpts)
	if err != nil {
		log.Fatal().Err(err).Str("kind", kind).Msg("Diff failed")
	}
	printJSON(report)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}

func defaultOperator() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "cli"
}
