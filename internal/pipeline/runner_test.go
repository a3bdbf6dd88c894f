package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/config"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/observability"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/pipeline"
)

func newRunnerConfig(url, cacheDir string) *config.Config {
	return &config.Config{
		DatasetURL:   url,
		CacheDir:     cacheDir,
		FetchTimeout: 5 * time.Second,
	}
}

func TestRunner_PrepareBuildsFromSource(t *testing.T) {
	payload := buildZip(t, map[string][][]string{"covid_19_data.csv": countryRows()})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload) //nolint:errcheck
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	runner := pipeline.NewRunner(
		newRunnerConfig(server.URL, cacheDir), nil,
		discardLogger(), observability.NewMetricsForTesting(),
	)

	require.Error(t, runner.CheckReadiness(context.Background()))

	ds, err := runner.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, "2020-01-23", ds.LatestDate().Format(domain.DateLayout))

	require.NoError(t, runner.CheckReadiness(context.Background()))

	_, err = os.Stat(filepath.Join(cacheDir, pipeline.CacheFileName))
	require.NoError(t, err, "cache file should exist after the first run")
}

func TestRunner_PrepareUsesCacheWithoutNetwork(t *testing.T) {
	payload := buildZip(t, map[string][][]string{"covid_19_data.csv": countryRows()})
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Write(payload) //nolint:errcheck
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	cfg := newRunnerConfig(server.URL, cacheDir)
	metrics := observability.NewMetricsForTesting()

	first := pipeline.NewRunner(cfg, nil, discardLogger(), metrics)
	_, err := first.Prepare(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), requests.Load())

	server.Close()

	second := pipeline.NewRunner(cfg, nil, discardLogger(), observability.NewMetricsForTesting())
	ds, err := second.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, int64(1), requests.Load(), "a cache hit must not touch the network")
}

func TestRunner_PrepareRebuildsCorruptCache(t *testing.T) {
	payload := buildZip(t, map[string][][]string{"covid_19_data.csv": countryRows()})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload) //nolint:errcheck
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(cacheDir, pipeline.CacheFileName),
		[]byte("observation_date,country,province,latitude,longitude,confirmed,deaths,recovered\ngarbage,,,,,,,\n"),
		0o644,
	))

	runner := pipeline.NewRunner(
		newRunnerConfig(server.URL, cacheDir), nil,
		discardLogger(), observability.NewMetricsForTesting(),
	)
	ds, err := runner.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestRunner_PrepareNoUsableRows(t *testing.T) {
	rows := [][]string{
		{"SNo", "ObservationDate", "Province/State", "Country/Region", "Confirmed", "Deaths", "Recovered"},
		{"1", "not-a-date", "Hubei", "Mainland China", "444", "17", "28"},
		{"2", "also bad", "", "Japan", "2", "0", "0"},
	}
	payload := buildZip(t, map[string][][]string{"covid_19_data.csv": rows})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload) //nolint:errcheck
	}))
	defer server.Close()

	runner := pipeline.NewRunner(
		newRunnerConfig(server.URL, t.TempDir()), nil,
		discardLogger(), observability.NewMetricsForTesting(),
	)
	_, err := runner.Prepare(context.Background())

	var aggErr *domain.AggregationError
	require.ErrorAs(t, err, &aggErr)
	require.Error(t, runner.CheckReadiness(context.Background()))
}

func TestRunner_PrepareFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	runner := pipeline.NewRunner(
		newRunnerConfig(server.URL, t.TempDir()), nil,
		discardLogger(), observability.NewMetricsForTesting(),
	)
	_, err := runner.Prepare(context.Background())

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
}
