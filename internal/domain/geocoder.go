package domain

import "context"

// Coordinates is a geocoding lookup result.
type Coordinates struct {
	Lat        float64
	Lon        float64
	PlaceName  string
	Confidence float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves a location name to coordinates. Used to fill in map
// coordinates for records whose source files carry none.
type Geocoder interface {
	Geocode(ctx context.Context, country, province string) (Coordinates, error)
}
