package pipeline_test

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildZip assembles an in-memory ZIP archive of CSV files, each given as a
// member name and its rows.
func buildZip(t *testing.T, files map[string][][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, rows := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		cw := csv.NewWriter(w)
		require.NoError(t, cw.WriteAll(rows))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// countryRows is a small JHU-style country-level CSV.
func countryRows() [][]string {
	return [][]string{
		{"SNo", "ObservationDate", "Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"},
		{"1", "01/22/2020", "Hubei", "Mainland China", "01/22/2020 17:00", "444", "17", "28"},
		{"2", "01/22/2020", "", "Japan", "01/22/2020 17:00", "2", "0", "0"},
		{"3", "01/23/2020", "Hubei", "Mainland China", "01/23/2020 17:00", "549", "24", "31"},
	}
}

// cityRows is a city-level CSV with alternate header spellings and coordinates.
func cityRows() [][]string {
	return [][]string{
		{"Date", "Country", "State", "Lat", "Long", "Cases", "Deaths", "Recovered"},
		{"2020-01-23", "US", "Washington", "47.75", "-120.74", "1.0", "0", "0"},
		{"2020-01-23", "Mainland China", "Hubei", "30.97", "112.27", "540.0", "24", "31"},
	}
}
