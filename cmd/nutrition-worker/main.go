package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercapi/mercapi-backend/internal/nutrition"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/db"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/metrics"
	"github.com/mercapi/mercapi-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "nutrition-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	reprocessAll := flag.Bool("reprocess-all", false, "also reprocess products whose nutrition row has no calories")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "nutrition-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := cfg.Gemini.Require(); err != nil {
		logg.Error(context.Background(), "gemini api key required", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	service, err := nutrition.NewService(
		nutrition.NewRepository(dbClient.DB()),
		gemini.New(cfg.Gemini, logg),
		nutrition.NewHTTPFetcher(),
		metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create nutrition service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"reprocess_all": *reprocessAll,
	})
	logg.Info(ctx, "starting nutrition backfill")

	summary, err := service.Run(ctx, *reprocessAll)
	if err != nil {
		logg.Error(ctx, "nutrition backfill failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"candidates":       summary.Candidates,
		"extracted":        summary.Extracted,
		"estimated":        summary.Estimated,
		"skipped_non_food": summary.SkippedNonFood,
		"failed":           summary.Failed,
	})
	logg.Info(ctx, "nutrition backfill complete")
}
