package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"footypool/ingestion/internal/cache"
	"footypool/ingestion/internal/config"
	"footypool/ingestion/internal/ingest"
	"footypool/ingestion/internal/jobs"
	"footypool/ingestion/internal/metrics"
	"footypool/ingestion/internal/models"
	"footypool/ingestion/internal/provider"
	"footypool/ingestion/internal/repository"
	"footypool/ingestion/internal/scheduler"
	"footypool/ingestion/internal/settle"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting footypool ingestion worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Bool("provider_credentials", cfg.HasProviderCredentials()).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	providerClient := provider.NewClient(
		cfg.ProviderBaseURL,
		cfg.ProviderAPIKey,
		cfg.ProviderTimeout,
	)
	log.Info().Str("base_url", cfg.ProviderBaseURL).Msg("Provider client initialized")

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

	// Redis is optional: settlement summaries just skip the cache without it.
	redisCache, err := cache.New(ctx, cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort, db)
		go reportPoolStats(ctx, db)
	}

	pipeline := ingest.NewPipeline(db)
	engine := settle.NewEngine(settle.NewStore(db), redisCache, cfg.SummaryCacheTTL)
	runner := jobs.NewRunner(db.Jobs)
	service := jobs.NewService(runner, jobs.Definitions(jobs.Deps{
		Config:   cfg,
		Provider: providerClient,
		Pipeline: pipeline,
		Engine:   engine,
		DB:       db,
	}))

	sched := scheduler.NewScheduler(cfg, service)
	if cfg.EnableScheduler {
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial sync...")
		if err := service.RunAll(ctx, jobs.RunOptions{Trigger: models.TriggerAutomatic}); err != nil {
			log.Error().Err(err).Msg("Initial sync finished with failures, continuing anyway...")
		} else {
			log.Info().Msg("Initial sync completed successfully")
		}
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	if cfg.EnableScheduler {
		sched.Stop()
	}

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int, db *repository.Database) {
	http.Handle("/metrics", promhttp.Handler())

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

// reportPoolStats exports connection pool gauges until shutdown.
func reportPoolStats(ctx context.Context, db *repository.Database) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat := db.Pool.Stat()
			metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
		}
	}
}
