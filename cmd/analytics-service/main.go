package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"waste-analytics-service/internal/aggregate"
	"waste-analytics-service/internal/ai"
	"waste-analytics-service/internal/auth"
	"waste-analytics-service/internal/config"
	"waste-analytics-service/internal/db"
	httphandler "waste-analytics-service/internal/http"
	"waste-analytics-service/internal/http/middleware"
	"waste-analytics-service/internal/ingest"
	"waste-analytics-service/internal/logger"
	"waste-analytics-service/internal/metrics"
	"waste-analytics-service/internal/repository"
	"waste-analytics-service/internal/service"
	"waste-analytics-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	snapshots := store.NewSnapshotStore()
	snapshotRepo := repository.NewSnapshotRepository(database)
	loader := ingest.NewLoader(cfg.Datasets.Sources, ingest.Options{
		Timeout:    cfg.Datasets.FetchTimeout,
		MaxRetries: cfg.Datasets.MaxRetries,
	}, nil, collector, appLogger)

	ingestionService := service.NewIngestionService(loader, snapshotRepo, snapshots, cfg.Datasets.KeepSnapshots, collector, appLogger)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := ingestionService.Bootstrap(bootCtx); err != nil {
		appLogger.Error().Err(err).Msg("starting without data; reload via /admin/datasets/reload")
	}
	cancelBoot()

	analyticsService := service.NewAnalyticsService(snapshots, aggregate.Options{
		AffordabilityBenchmark: cfg.Analytics.AffordabilityBenchmark,
		OperatingDaysPerMonth:  cfg.Analytics.OperatingDaysPerMonth,
	}, collector)

	aiClient := ai.NewHTTPClient(ai.Options{
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
	}, nil, collector, appLogger)
	reportService := service.NewReportService(analyticsService, aiClient)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(analyticsService, ingestionService, reportService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, httphandler.RouterOptions{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Gatherer:       registry,
	}, appLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().Str("addr", server.Addr).Msg("starting waste analytics service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("forced shutdown")
	}
}
