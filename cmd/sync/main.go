package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercapi/mercapi-backend/internal/scraper"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/db"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/metrics"
	"github.com/mercapi/mercapi-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	updateExisting := flag.Bool("update-existing", false, "re-fetch and update products already in the database")
	maxRequests := flag.Int("max-requests", 0, "override the configured requests-per-minute budget")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if *maxRequests > 0 {
		cfg.Scraper.RequestsPerMinute = *maxRequests
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	syncer, err := scraper.NewSyncer(
		scraper.NewClient(cfg.Scraper, logg),
		dbClient.DB(),
		metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create syncer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"update_existing": *updateExisting,
	})
	logg.Info(ctx, "starting catalog sync")

	summary, err := syncer.Run(ctx, *updateExisting)
	if err != nil {
		logg.Error(ctx, "catalog sync failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"categories":       summary.Categories,
		"products_created": summary.ProductsCreated,
		"products_updated": summary.ProductsUpdated,
		"products_skipped": summary.ProductsSkipped,
		"prices_recorded":  summary.PricesRecorded,
	})
	logg.Info(ctx, "catalog sync complete")
}
