package domain

import (
	"fmt"
	"time"
)

// CanonicalRecord is one normalized case report row. Every record has a
// non-zero ObservationDate and a non-empty Country; Province may be empty
// for country-level reports. Coordinates are optional (nil when the source
// file carries none). Counts are cumulative and never negative.
type CanonicalRecord struct {
	ObservationDate time.Time `json:"observation_date"`
	Country         string    `json:"country"`
	Province        string    `json:"province,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	Confirmed       int64     `json:"confirmed"`
	Deaths          int64     `json:"deaths"`
	Recovered       int64     `json:"recovered"`
}

// Key returns the canonical identity of the record:
// "<date>|<country>|<province>" with the date in ISO form.
func (r CanonicalRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.ObservationDate.Format(DateLayout), r.Country, r.Province)
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r CanonicalRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// DateLayout is the ISO calendar date layout used for keys and the cache file.
const DateLayout = "2006-01-02"

// Dataset is the aggregated, de-duplicated sequence of canonical records.
// Once built it is immutable and safe to share across concurrent readers.
type Dataset struct {
	Records []CanonicalRecord

	// BuiltAt is when the dataset was assembled (or loaded from cache).
	BuiltAt time.Time

	// SkippedRows counts source rows dropped by per-row parse failures.
	SkippedRows int

	// Sources lists the files the dataset was built from, in input order.
	Sources []string
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// LatestDate returns the most recent observation date across all records,
// or the zero time for an empty dataset.
func (d *Dataset) LatestDate() time.Time {
	var latest time.Time
	for _, r := range d.Records {
		if r.ObservationDate.After(latest) {
			latest = r.ObservationDate
		}
	}
	return latest
}
