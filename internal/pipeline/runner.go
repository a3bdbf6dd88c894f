package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/config"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/observability"
)

// Runner orchestrates the fetch → extract → normalize → aggregate pipeline.
// Preparation is synchronous and single-shot; the produced Dataset is
// immutable and safe to share. A concurrent first-run race on the cache file
// degrades to last-writer-wins, no locking.
type Runner struct {
	cfg      *config.Config
	fetcher  *Fetcher
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// NewRunner creates a Runner. Pass a nil geocoder to disable coordinate
// enrichment.
func NewRunner(cfg *config.Config, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		cfg:      cfg,
		fetcher:  NewFetcher(cfg.FetchTimeout, logger),
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a dataset has been loaded, or an error
// describing why the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Prepare returns the dataset, building it if no cache exists. When the
// cache file is present it is loaded directly with no network access (the
// offline-first fast path). A cache that fails validation is discarded and
// rebuilt from source.
func (r *Runner) Prepare(ctx context.Context) (*domain.Dataset, error) {
	cachePath := filepath.Join(r.cfg.CacheDir, CacheFileName)

	ds, err := ReadCache(cachePath)
	if err == nil {
		r.logger.Info("dataset loaded from cache", "path", cachePath, "records", ds.Len())
		r.finish(ds)
		return ds, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("cache unreadable, rebuilding from source", "path", cachePath, "error", err)
	}

	ds, err = r.build(ctx, cachePath)
	if err != nil {
		return nil, err
	}
	r.finish(ds)
	return ds, nil
}

// build runs the full pipeline once and writes the cache file.
func (r *Runner) build(ctx context.Context, cachePath string) (*domain.Dataset, error) {
	start := time.Now()
	archive, err := r.fetcher.Fetch(ctx, r.cfg.DatasetURL, r.cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	r.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	files, err := Extract(archive, filepath.Join(r.cfg.CacheDir, "extracted"))
	if err != nil {
		return nil, err
	}
	r.logger.Info("archive extracted", "files", len(files))

	perFile := make([][]domain.CanonicalRecord, 0, len(files))
	var skipped int
	for _, path := range files {
		records, s, err := NormalizeFile(path, r.logger)
		if err != nil {
			// An unreadable file is skipped; the aggregator decides whether
			// anything usable survived overall.
			r.logger.Warn("skipping unreadable source file", "file", path, "error", err)
			continue
		}
		skipped += s
		perFile = append(perFile, records)
	}
	r.metrics.RowsSkipped.Add(float64(skipped))

	ds, err := Aggregate(perFile, files, skipped)
	if err != nil {
		return nil, err
	}
	r.metrics.RowsParsed.Add(float64(ds.Len()))

	ds.Records = domain.EnrichMissingCoordinates(ctx, ds.Records, r.geocoder, r.logger)

	if err := WriteCache(cachePath, ds); err != nil {
		return nil, err
	}

	r.logger.Info("dataset built",
		"records", ds.Len(),
		"skipped_rows", ds.SkippedRows,
		"sources", len(ds.Sources),
		"latest_date", ds.LatestDate().Format(domain.DateLayout),
	)
	return ds, nil
}

func (r *Runner) finish(ds *domain.Dataset) {
	r.metrics.DatasetRecords.Set(float64(ds.Len()))
	if latest := ds.LatestDate(); !latest.IsZero() {
		r.metrics.DatasetLatestDate.Set(float64(latest.Unix()))
	}
	r.metrics.PipelineReady.Set(1)
	r.ready.Store(true)
}
