package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vjranagit/touchdown/pkg/types"
)

// Column names of the long-format export
const (
	FieldSignal    = "Uri"
	FieldTimestamp = "OriginTime"
	FieldValue     = "Value"
)

// how often the reader polls ctx for cancellation
const cancelCheckEvery = 4096

// LoadCSV reads a telemetry export from path and builds a Store of the named signals
func LoadCSV(ctx context.Context, path string, signals ...string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, 0, err)
	}
	defer file.Close()

	return ReadCSV(ctx, path, file, signals...)
}

// ReadCSV builds a Store from a telemetry export read from r. The header must
// contain the Uri, OriginTime and Value fields; other columns are ignored.
// source names r in errors.
func ReadCSV(ctx context.Context, source string, r io.Reader, signals ...string) (*Store, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, loadError(source, 0, fmt.Errorf("%w: empty source, no header", ErrMissingField))
		}
		return nil, loadError(source, 0, err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, loadError(source, 0, err)
	}

	interest := make(map[string]struct{}, len(signals))
	for _, s := range signals {
		interest[s] = struct{}{}
	}

	var (
		rows  []types.RawRow
		lines []int
	)
	for line := 1; ; line++ {
		if line%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, loadError(source, line, err)
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, loadError(source, line, err)
		}

		signal := field(record, cols.signal)
		if _, ok := interest[signal]; !ok {
			continue
		}
		if cols.timestamp >= len(record) {
			return nil, loadError(source, line, fmt.Errorf("%w: %s", ErrMissingField, FieldTimestamp))
		}

		rows = append(rows, types.RawRow{
			Signal:    signal,
			Timestamp: record[cols.timestamp],
			Value:     field(record, cols.value),
		})
		lines = append(lines, line)
	}

	return build(source, rows, lines, signals)
}

type columns struct {
	signal, timestamp, value int
}

func locateColumns(header []string) (columns, error) {
	cols := columns{signal: -1, timestamp: -1, value: -1}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case FieldSignal:
			cols.signal = i
		case FieldTimestamp:
			cols.timestamp = i
		case FieldValue:
			cols.value = i
		}
	}

	var missing []string
	if cols.signal < 0 {
		missing = append(missing, FieldSignal)
	}
	if cols.timestamp < 0 {
		missing = append(missing, FieldTimestamp)
	}
	if cols.value < 0 {
		missing = append(missing, FieldValue)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return cols, nil
}

// field returns record[i], or "" for a short record
func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
