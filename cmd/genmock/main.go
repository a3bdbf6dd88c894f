// Command genmock generates a mock dataset archive for local development
// and tests. The archive mixes two CSV schemas, a country-level file in JHU
// "ObservationDate" style and a city-level file with different column
// spellings plus coordinates, so the normalizer's alias table is exercised
// end to end.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/dataset.zip -days 30 -seed 42
package main

import (
	"archive/zip"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var startDate = time.Date(2020, time.January, 22, 0, 0, 0, 0, time.UTC)

type country struct {
	name      string
	provinces []string
	lat, lon  float64
	scale     int64 // rough outbreak size multiplier
}

var countries = []country{
	{name: "Mainland China", provinces: []string{"Hubei", "Guangdong", "Zhejiang"}, lat: 30.97, lon: 112.27, scale: 900},
	{name: "Italy", provinces: nil, lat: 41.87, lon: 12.56, scale: 700},
	{name: "US", provinces: []string{"New York", "Washington", "California"}, lat: 40.71, lon: -74.0, scale: 800},
	{name: "Iran", provinces: nil, lat: 32.43, lon: 53.69, scale: 500},
	{name: "South Korea", provinces: nil, lat: 35.91, lon: 127.77, scale: 400},
	{name: "Germany", provinces: nil, lat: 51.17, lon: 10.45, scale: 350},
	{name: "France", provinces: nil, lat: 46.23, lon: 2.21, scale: 340},
	{name: "Spain", provinces: nil, lat: 40.46, lon: -3.75, scale: 330},
}

func main() {
	out := flag.String("out", "data/mock/dataset.zip", "output archive path")
	days := flag.Int("days", 30, "number of observation days to generate")
	seed := flag.Int64("seed", 42, "random seed for reproducible output")
	badRows := flag.Int("bad-rows", 3, "unparsable rows to inject per file")
	flag.Parse()

	if err := run(*out, *days, *seed, *badRows); err != nil {
		fmt.Fprintf(os.Stderr, "genmock: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d days, %d countries)\n", *out, *days, len(countries))
}

func run(out string, days int, seed int64, badRows int) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(seed))
	zw := zip.NewWriter(f)

	if err := writeCountryFile(zw, rng, days, badRows); err != nil {
		return err
	}
	if err := writeCityFile(zw, rng, days, badRows); err != nil {
		return err
	}
	return zw.Close()
}

// writeCountryFile emits the JHU-style country-level file: slash-separated
// column names, mm/dd/yyyy dates, no coordinates.
func writeCountryFile(zw *zip.Writer, rng *rand.Rand, days, badRows int) error {
	w, err := zw.Create("covid_19_data.csv")
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"SNo", "ObservationDate", "Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"}); err != nil {
		return err
	}

	sno := 1
	for day := 0; day < days; day++ {
		date := startDate.AddDate(0, 0, day).Format("01/02/2006")
		for _, c := range countries {
			provinces := c.provinces
			if len(provinces) == 0 {
				provinces = []string{""}
			}
			for _, p := range provinces {
				confirmed := cumulative(rng, c.scale, day)
				row := []string{
					strconv.Itoa(sno), date, p, c.name, date + " 23:59",
					strconv.FormatInt(confirmed, 10),
					strconv.FormatInt(confirmed/20, 10),
					strconv.FormatInt(confirmed/3, 10),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
				sno++
			}
		}
	}

	for i := 0; i < badRows; i++ {
		// Unparsable observation dates: the normalizer must skip these rows.
		if err := cw.Write([]string{strconv.Itoa(sno + i), "not-a-date", "", "Atlantis", "", "10", "1", "2"}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeCityFile emits a city-level file with alternate column spellings,
// ISO dates, coordinates, and float-encoded counts.
func writeCityFile(zw *zip.Writer, rng *rand.Rand, days, badRows int) error {
	w, err := zw.Create("covid_19_city_level.csv")
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Country", "State", "Lat", "Long", "Cases", "Deaths", "Recovered"}); err != nil {
		return err
	}

	for day := 0; day < days; day++ {
		date := startDate.AddDate(0, 0, day).Format("2006-01-02")
		for _, c := range countries {
			if len(c.provinces) == 0 {
				continue
			}
			for i, p := range c.provinces {
				confirmed := cumulative(rng, c.scale/2, day)
				row := []string{
					date, c.name, p,
					strconv.FormatFloat(c.lat+float64(i)*0.8, 'f', 2, 64),
					strconv.FormatFloat(c.lon-float64(i)*0.8, 'f', 2, 64),
					strconv.FormatFloat(float64(confirmed), 'f', 1, 64),
					strconv.FormatInt(confirmed/25, 10),
					strconv.FormatInt(confirmed/4, 10),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	for i := 0; i < badRows; i++ {
		if err := cw.Write([]string{"2020/13/45", "Atlantis", "", "", "", "5", "0", "0"}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// cumulative produces a monotonically growing count with some jitter, since
// source counts are cumulative totals.
func cumulative(rng *rand.Rand, scale int64, day int) int64 {
	base := scale * int64(day) * int64(day) / 10
	return base + rng.Int63n(scale+1)
}
