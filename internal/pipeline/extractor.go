package pipeline

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// bareCSVName is used when the remote returns a single CSV instead of a ZIP
// (some dataset mirrors do).
const bareCSVName = "covid_19_data.csv"

// Extract expands the archive into dataDir and returns the extracted CSV
// paths in deterministic (sorted) order. A payload that is not a ZIP is
// treated as a single bare CSV. Re-extracting into the same directory
// overwrites prior contents. A corrupt archive or one containing no CSV
// member fails with *domain.ExtractionError.
func Extract(archivePath, dataDir string) ([]string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return extractBareCSV(archivePath, dataDir)
		}
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}
	defer reader.Close()

	var paths []string
	for _, member := range reader.File {
		if member.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(member.Name), ".csv") {
			continue
		}
		// Flatten member paths: nested directories inside the archive are
		// not preserved, only base names.
		dst := filepath.Join(dataDir, filepath.Base(member.Name))
		if err := extractMember(member, dst); err != nil {
			return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
		}
		paths = append(paths, dst)
	}

	if len(paths) == 0 {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: fmt.Errorf("archive contains no CSV files")}
	}

	sort.Strings(paths)
	return paths, nil
}

func extractMember(member *zip.File, dst string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("open member %s: %w", member.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// extractBareCSV handles non-ZIP payloads by copying them into the data
// directory under a fixed name, after a sanity check that the payload looks
// like delimited text.
func extractBareCSV(archivePath, dataDir string) ([]string, error) {
	raw, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}

	head := raw
	if len(head) > 4096 {
		head = head[:4096]
	}
	if !bytes.ContainsRune(head, ',') {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: fmt.Errorf("payload is neither a ZIP archive nor a CSV")}
	}

	dst := filepath.Join(dataDir, bareCSVName)
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}
	return []string{dst}, nil
}
