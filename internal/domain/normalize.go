package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// column identifies a canonical field of CanonicalRecord.
type column int

const (
	colDate column = iota
	colCountry
	colProvince
	colLatitude
	colLongitude
	colConfirmed
	colDeaths
	colRecovered
)

// columnAliases maps lowercased source header spellings to canonical columns.
// Normalization is column-name-driven: source files are not guaranteed to
// share a schema, so positional assumptions would silently misalign fields.
var columnAliases = map[string]column{
	"observationdate":  colDate,
	"observation_date": colDate,
	"date":             colDate,
	"report_date":      colDate,

	"country/region": colCountry,
	"country_region": colCountry,
	"country":        colCountry,

	"province/state": colProvince,
	"province_state": colProvince,
	"province":       colProvince,
	"state":          colProvince,

	"latitude": colLatitude,
	"lat":      colLatitude,

	"longitude": colLongitude,
	"long":      colLongitude,
	"long_":     colLongitude,
	"lon":       colLongitude,

	"confirmed": colConfirmed,
	"cases":     colConfirmed,

	"deaths":    colDeaths,
	"recovered": colRecovered,
}

// dateLayouts are tried in order. Numeric layout fields without leading
// zeros accept both padded and unpadded input, so "1/2/2006" covers
// "01/22/2020" as well as "1/22/2020".
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
}

// innerSpaceRe collapses runs of whitespace inside country names,
// e.g. "Korea,  South" → "Korea, South".
var innerSpaceRe = regexp.MustCompile(`\s+`)

// HeaderMap maps canonical columns to their index in one source file's
// header row. Columns absent from the source are absent from the map.
type HeaderMap map[column]int

// MapHeader resolves a source CSV header row against the alias table.
// Unknown columns are dropped; matching is case-insensitive and ignores
// surrounding whitespace. A later duplicate of an already-mapped column is
// ignored (first wins).
func MapHeader(header []string) HeaderMap {
	m := make(HeaderMap, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		col, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, mapped := m[col]; mapped {
			continue
		}
		m[col] = i
	}
	return m
}

// field returns the trimmed cell for col, or "" when the column is unmapped
// or the row is too short.
func (m HeaderMap) field(row []string, col column) string {
	i, ok := m[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRow normalizes one source row into a CanonicalRecord. An unparsable
// observation date or an empty country fails the row with *RowParseError;
// all other defects degrade (counts clamp to zero, coordinates drop to nil).
func ParseRow(m HeaderMap, row []string, file string, line int) (CanonicalRecord, error) {
	dateStr := m.field(row, colDate)
	date, err := ParseObservationDate(dateStr)
	if err != nil {
		return CanonicalRecord{}, &RowParseError{File: file, Line: line, Reason: fmt.Sprintf("bad observation date %q", dateStr)}
	}

	country := NormalizeCountry(m.field(row, colCountry))
	if country == "" {
		return CanonicalRecord{}, &RowParseError{File: file, Line: line, Reason: "missing country"}
	}

	// Coordinates are kept as a pair or not at all; a lone latitude is
	// useless for map markers.
	lat := parseCoordinate(m.field(row, colLatitude))
	lon := parseCoordinate(m.field(row, colLongitude))
	if (lat == nil) != (lon == nil) {
		lat, lon = nil, nil
	}

	return CanonicalRecord{
		ObservationDate: date,
		Country:         country,
		Province:        m.field(row, colProvince),
		Latitude:        lat,
		Longitude:       lon,
		Confirmed:       parseCount(m.field(row, colConfirmed)),
		Deaths:          parseCount(m.field(row, colDeaths)),
		Recovered:       parseCount(m.field(row, colRecovered)),
	}, nil
}

// ParseObservationDate parses a source date cell into a UTC calendar date.
// A trailing clock time ("01/22/2020 17:00") is discarded.
func ParseObservationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// NormalizeCountry trims a country name and collapses inner whitespace runs.
func NormalizeCountry(s string) string {
	return innerSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// parseCount parses a cumulative count cell. Source files frequently hold
// counts as floats ("12.0"); negative or unparsable values clamp to zero.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int64(v)
}

// parseCoordinate parses an optional latitude/longitude cell, returning nil
// when the cell is empty or unparsable.
func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
