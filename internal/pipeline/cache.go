package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// CacheFileName is the serialized dataset inside the cache directory.
const CacheFileName = "dataset.csv"

// cacheColumns is the fixed column order of the cache file.
var cacheColumns = []string{
	"observation_date", "country", "province",
	"latitude", "longitude",
	"confirmed", "deaths", "recovered",
}

// WriteCache serializes the dataset to path in the canonical column order.
// The file is written via temp-and-rename so a concurrent first-run race
// degrades to last-writer-wins rather than interleaved rows.
func WriteCache(path string, ds *domain.Dataset) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, CacheFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(cacheColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache header: %w", err)
	}
	for _, rec := range ds.Records {
		if err := w.Write(cacheRow(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func cacheRow(rec domain.CanonicalRecord) []string {
	var lat, lon string
	if rec.Latitude != nil {
		lat = strconv.FormatFloat(*rec.Latitude, 'f', -1, 64)
	}
	if rec.Longitude != nil {
		lon = strconv.FormatFloat(*rec.Longitude, 'f', -1, 64)
	}
	return []string{
		rec.ObservationDate.Format(domain.DateLayout),
		rec.Country,
		rec.Province,
		lat,
		lon,
		strconv.FormatInt(rec.Confirmed, 10),
		strconv.FormatInt(rec.Deaths, 10),
		strconv.FormatInt(rec.Recovered, 10),
	}
}

// ReadCache loads a previously serialized dataset. The cache header is part
// of the canonical alias table, so loading reuses the normalizer and
// re-validates the canonical invariants; any unparsable row means the cache
// is corrupt and the caller should rebuild from source.
func ReadCache(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read cache header: %w", err)
	}
	mapping := domain.MapHeader(header)

	var records []domain.CanonicalRecord
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read cache: %w", err)
		}
		rec, err := domain.ParseRow(mapping, row, path, line)
		if err != nil {
			return nil, fmt.Errorf("corrupt cache: %w", err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("cache %s holds no records", path)
	}

	return &domain.Dataset{
		Records: records,
		BuiltAt: domain.Now(),
		Sources: []string{path},
	}, nil
}
