// Package query exposes read-only derived views over a dataset snapshot.
// All views are pure functions of the Dataset held in memory; the facade
// performs no mutation and is safe for concurrent callers.
package query

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// Metric selects one of the three cumulative count fields.
type Metric string

const (
	MetricConfirmed Metric = "confirmed"
	MetricDeaths    Metric = "deaths"
	MetricRecovered Metric = "recovered"
)

// ParseMetric validates a metric name. An empty name defaults to confirmed.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(s)) {
	case "":
		return MetricConfirmed, nil
	case MetricConfirmed:
		return MetricConfirmed, nil
	case MetricDeaths:
		return MetricDeaths, nil
	case MetricRecovered:
		return MetricRecovered, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

func (m Metric) of(r domain.CanonicalRecord) int64 {
	switch m {
	case MetricDeaths:
		return r.Deaths
	case MetricRecovered:
		return r.Recovered
	default:
		return r.Confirmed
	}
}

// Totals aggregates the three metrics.
type Totals struct {
	Confirmed int64 `json:"confirmed"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
}

// TimePoint is one element of a timeseries.
type TimePoint struct {
	Date  time.Time `json:"date"`
	Total int64     `json:"total"`
}

// CountryTotal is one ranking entry.
type CountryTotal struct {
	Country string `json:"country"`
	Value   int64  `json:"value"`
}

// DetailRow is one per-province history entry for a single country.
type DetailRow struct {
	Date      time.Time `json:"date"`
	Province  string    `json:"province,omitempty"`
	Confirmed int64     `json:"confirmed"`
	Deaths    int64     `json:"deaths"`
	Recovered int64     `json:"recovered"`
}

// Facade derives view-ready aggregates from one immutable Dataset snapshot.
type Facade struct {
	ds *domain.Dataset

	// latestByLoc holds the most recent record per (country, province),
	// sorted by country then province. Shared by GlobalTotals and
	// LatestByLocation.
	latestByLoc []domain.CanonicalRecord
	latestDate  time.Time
}

// New builds a Facade over ds, precomputing the latest-per-location index.
func New(ds *domain.Dataset) *Facade {
	latest := make(map[string]domain.CanonicalRecord, len(ds.Records))
	for _, r := range ds.Records {
		key := r.Country + "|" + r.Province
		if cur, ok := latest[key]; !ok || r.ObservationDate.After(cur.ObservationDate) {
			latest[key] = r
		}
	}

	byLoc := make([]domain.CanonicalRecord, 0, len(latest))
	for _, r := range latest {
		byLoc = append(byLoc, r)
	}
	sort.Slice(byLoc, func(i, j int) bool {
		if byLoc[i].Country != byLoc[j].Country {
			return byLoc[i].Country < byLoc[j].Country
		}
		return byLoc[i].Province < byLoc[j].Province
	})

	return &Facade{
		ds:          ds,
		latestByLoc: byLoc,
		latestDate:  ds.LatestDate(),
	}
}

// LatestDate returns the newest observation date in the snapshot.
func (f *Facade) LatestDate() time.Time { return f.latestDate }

// GlobalTotals sums confirmed/deaths/recovered over each location's latest
// observation date, so historical dates are never double counted.
func (f *Facade) GlobalTotals() Totals {
	var t Totals
	for _, r := range f.latestByLoc {
		t.Confirmed += r.Confirmed
		t.Deaths += r.Deaths
		t.Recovered += r.Recovered
	}
	return t
}

// Timeseries returns a finite, restartable sequence of (date, total) points
// in ascending date order, one point per distinct observation date, summing
// the metric across all countries and provinces.
func (f *Facade) Timeseries(metric Metric) iter.Seq[TimePoint] {
	totals := make(map[time.Time]int64)
	for _, r := range f.ds.Records {
		totals[r.ObservationDate] += metric.of(r)
	}

	dates := make([]time.Time, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return func(yield func(TimePoint) bool) {
		for _, d := range dates {
			if !yield(TimePoint{Date: d, Total: totals[d]}) {
				return
			}
		}
	}
}

// TopN ranks the n countries with the highest metric at the dataset's latest
// observation date, ties broken by country name ascending. Fewer than n
// entries are returned when fewer countries report on that date.
func (f *Facade) TopN(metric Metric, n int) []CountryTotal {
	if n <= 0 {
		return nil
	}

	byCountry := make(map[string]int64)
	for _, r := range f.ds.Records {
		if !r.ObservationDate.Equal(f.latestDate) {
			continue
		}
		byCountry[r.Country] += metric.of(r)
	}

	ranked := make([]CountryTotal, 0, len(byCountry))
	for country, value := range byCountry {
		ranked = append(ranked, CountryTotal{Country: country, Value: value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Country < ranked[j].Country
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// LatestByLocation returns one record per (country, province) pair holding
// that pair's most recent observation, sorted by country then province.
// Callers must treat the result as read-only.
func (f *Facade) LatestByLocation() []domain.CanonicalRecord {
	return f.latestByLoc
}

// CountryDetail returns the per-province history for one country, matched
// case-insensitively, ordered by date ascending then confirmed descending.
// An unknown country yields an empty slice.
func (f *Facade) CountryDetail(name string) []DetailRow {
	var rows []DetailRow
	for _, r := range f.ds.Records {
		if !strings.EqualFold(r.Country, name) {
			continue
		}
		rows = append(rows, DetailRow{
			Date:      r.ObservationDate,
			Province:  r.Province,
			Confirmed: r.Confirmed,
			Deaths:    r.Deaths,
			Recovered: r.Recovered,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].Confirmed != rows[j].Confirmed {
			return rows[i].Confirmed > rows[j].Confirmed
		}
		return rows[i].Province < rows[j].Province
	})
	return rows
}
