// Command dashboard prepares the COVID-19 dataset (downloading and
// normalizing it on first run, loading the cache afterwards) and serves the
// dashboard JSON API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/adapter/httpapi"
	kafkaadapter "github.com/mobinyousefi-cs/covid19-dashboard/internal/adapter/kafka"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/adapter/mapbox"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/config"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/observability"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/pipeline"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, geocoder, logger, metrics)
	ds, err := runner.Prepare(ctx)
	if err != nil {
		logger.Error("dataset preparation failed", "error", err)
		os.Exit(1)
	}

	// Export is best-effort: a Kafka outage must not take the dashboard down.
	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		if err := publisher.PublishDataset(ctx, ds); err != nil {
			logger.Error("kafka export failed", "error", err)
		} else {
			metrics.RecordsExported.Add(float64(ds.Len()))
		}
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	facade := query.New(ds)
	srv := httpapi.NewServer(cfg.HTTPAddr, facade, cfg.TopN, runner, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
