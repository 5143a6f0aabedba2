package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercapi/mercapi-backend/api/routes"
	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/internal/matching"
	"github.com/mercapi/mercapi-backend/internal/reports"
	"github.com/mercapi/mercapi-backend/internal/tickets"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/db"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/migrate"
	"github.com/mercapi/mercapi-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), cfg.Catalog.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	matcher := matching.New(cfg.Matcher)

	if err := cfg.Gemini.Require(); err != nil {
		logg.Warn(context.Background(), "gemini api key missing, ticket extraction will fail")
	}
	geminiClient := gemini.New(cfg.Gemini, logg)
	ticketService, err := tickets.NewService(geminiClient, catalogService, matcher, cfg.Nutrition.DailyKcal, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ticket service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(redisClient, cfg.Reports.QueueKey, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, prometheus.DefaultGatherer,
			catalogService, matcher, ticketService, reportService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
