package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// archiveFileName is the cached copy of the remote dataset archive.
const archiveFileName = "dataset.zip"

// Fetcher retrieves the remote dataset archive into the cache directory.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch returns the path to the local archive file, downloading it only when
// absent. An already-cached archive is returned immediately with no network
// access and no freshness validation (offline-first). Network failures and
// non-2xx responses surface as *domain.FetchError with no automatic retry.
func (f *Fetcher) Fetch(ctx context.Context, url, cacheDir string) (string, error) {
	archivePath := filepath.Join(cacheDir, archiveFileName)
	if _, err := os.Stat(archivePath); err == nil {
		f.logger.Info("archive already cached, skipping download", "path", archivePath)
		return archivePath, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	f.logger.Info("downloading dataset archive", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	// Download to a temp file and rename so a concurrent first-run race
	// degrades to last-writer-wins instead of a torn archive.
	tmp, err := os.CreateTemp(cacheDir, archiveFileName+".tmp-*")
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	if err := os.Rename(tmp.Name(), archivePath); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	f.logger.Info("archive downloaded", "path", archivePath, "bytes", n)
	return archivePath, nil
}
