package pipeline

import (
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// Aggregate concatenates normalized per-file record sequences into one
// Dataset, de-duplicating exact (observation_date, country, province) keys.
// De-duplication is stable: the first occurrence in input order wins, so
// earlier files take precedence over later ones. Fails with
// *domain.AggregationError only when zero valid rows survived across all
// files.
func Aggregate(perFile [][]domain.CanonicalRecord, sources []string, skippedRows int) (*domain.Dataset, error) {
	var total int
	for _, records := range perFile {
		total += len(records)
	}

	seen := make(map[string]struct{}, total)
	out := make([]domain.CanonicalRecord, 0, total)
	for _, records := range perFile {
		for _, rec := range records {
			key := rec.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, rec)
		}
	}

	if len(out) == 0 {
		return nil, &domain.AggregationError{Files: len(sources)}
	}

	return &domain.Dataset{
		Records:     out,
		BuiltAt:     domain.Now(),
		SkippedRows: skippedRows,
		Sources:     sources,
	}, nil
}
