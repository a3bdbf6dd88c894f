package domain

import "fmt"

// FetchError reports a failed archive retrieval. Fatal to the pipeline run;
// there is no automatic retry, the caller must re-invoke preparation.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports a corrupt archive or one containing no CSV files.
// Fatal to the pipeline run.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RowParseError reports a single unusable source row. Recovered by skipping
// the row; processing of the remaining rows in the file continues.
type RowParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// AggregationError means zero valid rows survived normalization across all
// source files, so the input is totally unusable. Fatal to the pipeline run.
type AggregationError struct {
	Files int
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("no usable rows in %d source file(s)", e.Files)
}
