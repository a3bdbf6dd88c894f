package domain

import (
	"context"
	"log/slog"
)

// EnrichMissingCoordinates fills in coordinates for records that lack them,
// resolving each distinct (country, province) pair at most once. A nil
// geocoder disables enrichment; lookup failures leave the affected records
// without coordinates (graceful degradation) and are logged, not fatal.
func EnrichMissingCoordinates(ctx context.Context, records []CanonicalRecord, geocoder Geocoder, logger *slog.Logger) []CanonicalRecord {
	if geocoder == nil {
		return records
	}

	type lookup struct {
		coords Coordinates
		ok     bool
	}
	resolved := make(map[string]lookup)

	for i := range records {
		if records[i].HasCoordinates() {
			continue
		}
		if ctx.Err() != nil {
			return records
		}

		key := records[i].Country + "|" + records[i].Province
		l, seen := resolved[key]
		if !seen {
			coords, err := geocoder.Geocode(ctx, records[i].Country, records[i].Province)
			if err != nil {
				logger.Warn("geocoding failed",
					"country", records[i].Country,
					"province", records[i].Province,
					"error", err,
				)
				resolved[key] = lookup{}
				continue
			}
			l = lookup{coords: coords, ok: coords.Lat != 0 || coords.Lon != 0}
			resolved[key] = l
		}
		if !l.ok {
			continue
		}

		lat, lon := l.coords.Lat, l.coords.Lon
		records[i].Latitude = &lat
		records[i].Longitude = &lon
	}

	return records
}
