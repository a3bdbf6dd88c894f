// Command validate checks a serialized dataset cache file against the
// canonical invariants: fixed column order, parseable observation dates,
// non-negative counts, and no duplicate (date, country, province) keys.
// It reports per-phase pass/fail and exits non-zero on any failure.
//
// Usage:
//
//	go run ./cmd/validate -cache data/dataset.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/pipeline"
)

var canonicalHeader = []string{
	"observation_date", "country", "province",
	"latitude", "longitude",
	"confirmed", "deaths", "recovered",
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (p *phase) report() {
	if p.passed() {
		fmt.Printf("PASS  %s\n", p.name)
		return
	}
	fmt.Printf("FAIL  %s\n", p.name)
	for i, e := range p.errors {
		if i == 10 {
			fmt.Printf("      ... and %d more\n", len(p.errors)-10)
			break
		}
		fmt.Printf("      %s\n", e)
	}
}

func main() {
	cachePath := flag.String("cache", "data/"+pipeline.CacheFileName, "path to the dataset cache file")
	flag.Parse()

	if code := run(*cachePath); code != 0 {
		os.Exit(code)
	}
}

func run(cachePath string) int {
	fmt.Println("=== Dataset Cache Validation ===")
	fmt.Println()

	header := checkHeader(cachePath)
	header.report()
	if !header.passed() {
		return 1
	}

	ds, err := pipeline.ReadCache(cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cache: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkInvariants(ds),
		checkDuplicates(ds),
	}

	failed := false
	for _, p := range phases {
		p.report()
		failed = failed || !p.passed()
	}

	fmt.Println()
	fmt.Printf("records: %d, latest date: %s\n", ds.Len(), ds.LatestDate().Format(domain.DateLayout))
	if failed {
		return 1
	}
	return 0
}

// checkHeader verifies the fixed canonical column order of the cache file.
func checkHeader(cachePath string) *phase {
	p := &phase{name: "header column order"}

	f, err := os.Open(cachePath)
	if err != nil {
		p.errorf("open cache: %v", err)
		return p
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		p.errorf("read header: %v", err)
		return p
	}
	if got, want := strings.Join(header, ","), strings.Join(canonicalHeader, ","); got != want {
		p.errorf("header mismatch:\n      got  %s\n      want %s", got, want)
	}
	return p
}

// checkInvariants verifies per-record canonical invariants.
func checkInvariants(ds *domain.Dataset) *phase {
	p := &phase{name: "canonical record invariants"}

	for i, rec := range ds.Records {
		if rec.ObservationDate.IsZero() {
			p.errorf("record %d: zero observation date", i)
		}
		if rec.Country == "" {
			p.errorf("record %d: empty country", i)
		}
		if rec.Confirmed < 0 || rec.Deaths < 0 || rec.Recovered < 0 {
			p.errorf("record %d (%s): negative count", i, rec.Key())
		}
		if (rec.Latitude == nil) != (rec.Longitude == nil) {
			p.errorf("record %d (%s): half-present coordinates", i, rec.Key())
		}
	}
	return p
}

// checkDuplicates verifies key uniqueness across the whole cache.
func checkDuplicates(ds *domain.Dataset) *phase {
	p := &phase{name: "key uniqueness"}

	seen := make(map[string]int, ds.Len())
	for i, rec := range ds.Records {
		key := rec.Key()
		if first, dup := seen[key]; dup {
			p.errorf("records %d and %d share key %s", first, i, key)
			continue
		}
		seen[key] = i
	}
	return p
}
