package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when the export lacks a required column
	ErrMissingField = errors.New("required field missing")

	// ErrBadTimestamp is returned when a retained row's timestamp cannot be parsed
	ErrBadTimestamp = errors.New("unparseable timestamp")

	// ErrBadSnapshot is returned when a snapshot file is not one this package wrote
	ErrBadSnapshot = errors.New("invalid snapshot")
)

// DataLoadError reports a source that could not be turned into a Store.
// Nothing is loaded when it is returned.
type DataLoadError struct {
	Source string
	Row    int // 1-based data row, 0 when the failure is not row-specific
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load %s: row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func loadError(source string, row int, err error) error {
	return &DataLoadError{Source: source, Row: row, Err: err}
}
