// Package domain models COVID-19 case report data.
//
// # Data Source
//
// Reports originate from daily situation CSVs in the JHU CSSE / DataFlair
// style, distributed as a ZIP archive (some mirrors return a single bare CSV
// instead). The archive is fetched once and cached locally; the dashboard is
// designed to work offline after the first download.
//
// # Source CSV Conventions
//
// Column names vary across files in the same archive. Commonly observed
// spellings, all matched case-insensitively:
//
//	Observation date: "ObservationDate", "Date", "Report_Date"
//	Country:          "Country/Region", "Country_Region", "Country"
//	Province:         "Province/State", "Province_State", "Province", "State"
//	Coordinates:      "Latitude"/"Lat", "Longitude"/"Long"/"Long_"/"Lon"
//	Counts:           "Confirmed"/"Cases", "Deaths", "Recovered"
//
// Columns outside this set (e.g. "Last Update", "SNo") are dropped. Missing
// optional columns default to empty or zero.
//
// Date formats:
//
//	"01/22/2020", "1/22/20", "2020-01-22", each optionally followed by a
//	clock time which is discarded. Observation dates are calendar dates;
//	all records are normalized to midnight UTC.
//
// Count columns hold cumulative totals. Unparsable or negative values clamp
// to zero, matching the upstream dashboards which treat missing counts as
// "no cases reported".
//
// # Canonical Key
//
// A record is identified by (observation_date, country, province). Duplicate
// keys across source files are resolved by keeping the first occurrence in
// input order. See [CanonicalRecord.Key].
package domain
