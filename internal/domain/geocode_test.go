package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	coords map[string]Coordinates
	err    error
	calls  int
}

func (f *fakeGeocoder) Geocode(_ context.Context, country, province string) (Coordinates, error) {
	f.calls++
	if f.err != nil {
		return Coordinates{}, f.err
	}
	return f.coords[country+"|"+province], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func geoRecord(country, province string, lat, lon *float64) CanonicalRecord {
	return CanonicalRecord{
		ObservationDate: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		Country:         country,
		Province:        province,
		Latitude:        lat,
		Longitude:       lon,
	}
}

func TestEnrichMissingCoordinates(t *testing.T) {
	ctx := context.Background()

	t.Run("fills missing coordinates", func(t *testing.T) {
		g := &fakeGeocoder{coords: map[string]Coordinates{
			"Italy|": {Lat: 41.87, Lon: 12.56},
		}}
		records := []CanonicalRecord{geoRecord("Italy", "", nil, nil)}

		out := EnrichMissingCoordinates(ctx, records, g, discardLogger())

		require.True(t, out[0].HasCoordinates())
		assert.Equal(t, 41.87, *out[0].Latitude)
		assert.Equal(t, 12.56, *out[0].Longitude)
	})

	t.Run("records with coordinates untouched", func(t *testing.T) {
		lat, lon := 40.71, -74.0
		g := &fakeGeocoder{}
		records := []CanonicalRecord{geoRecord("US", "New York", &lat, &lon)}

		out := EnrichMissingCoordinates(ctx, records, g, discardLogger())

		assert.Zero(t, g.calls)
		assert.Equal(t, 40.71, *out[0].Latitude)
	})

	t.Run("each location resolved at most once", func(t *testing.T) {
		g := &fakeGeocoder{coords: map[string]Coordinates{
			"Italy|": {Lat: 41.87, Lon: 12.56},
		}}
		records := []CanonicalRecord{
			geoRecord("Italy", "", nil, nil),
			geoRecord("Italy", "", nil, nil),
			geoRecord("Italy", "", nil, nil),
		}

		out := EnrichMissingCoordinates(ctx, records, g, discardLogger())

		assert.Equal(t, 1, g.calls)
		for _, r := range out {
			assert.True(t, r.HasCoordinates())
		}
	})

	t.Run("nil geocoder is a no-op", func(t *testing.T) {
		records := []CanonicalRecord{geoRecord("Italy", "", nil, nil)}
		out := EnrichMissingCoordinates(ctx, records, nil, discardLogger())
		assert.False(t, out[0].HasCoordinates())
	})

	t.Run("lookup failure degrades gracefully", func(t *testing.T) {
		g := &fakeGeocoder{err: errors.New("api down")}
		records := []CanonicalRecord{
			geoRecord("Italy", "", nil, nil),
			geoRecord("Italy", "", nil, nil),
		}

		out := EnrichMissingCoordinates(ctx, records, g, discardLogger())

		// Failure is cached per location, not retried per record.
		assert.Equal(t, 1, g.calls)
		assert.False(t, out[0].HasCoordinates())
		assert.False(t, out[1].HasCoordinates())
	})

	t.Run("empty result leaves record without coordinates", func(t *testing.T) {
		g := &fakeGeocoder{}
		records := []CanonicalRecord{geoRecord("Atlantis", "", nil, nil)}

		out := EnrichMissingCoordinates(ctx, records, g, discardLogger())
		assert.False(t, out[0].HasCoordinates())
	})
}
