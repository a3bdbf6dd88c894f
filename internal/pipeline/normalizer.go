package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// NormalizeFile reads one extracted CSV file and maps its rows onto the
// canonical schema. Rows that fail to parse are skipped and counted, never
// aborting the rest of the file. A file whose header maps to no canonical
// column contributes zero records without error.
func NormalizeFile(path string, logger *slog.Logger) ([]domain.CanonicalRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows in the wild have ragged lengths
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header of %s: %w", path, err)
	}
	mapping := domain.MapHeader(header)

	var (
		records []domain.CanonicalRecord
		skipped int
		line    = 1 // header consumed
	)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				logger.Debug("skipping malformed CSV line", "file", path, "line", line, "error", err)
				continue
			}
			return nil, 0, fmt.Errorf("read %s: %w", path, err)
		}

		rec, err := domain.ParseRow(mapping, row, path, line)
		if err != nil {
			skipped++
			logger.Debug("skipping unparsable row", "error", err)
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		logger.Warn("rows skipped during normalization", "file", path, "skipped", skipped, "kept", len(records))
	}
	return records, skipped, nil
}
