package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vjranagit/touchdown/pkg/types"
)

const (
	snapshotMagic   = "TDSNAP\n"
	snapshotVersion = 1

	// DefaultCompressionLevel is used by Save
	DefaultCompressionLevel = 3
)

// snapshotPayload is the flat on-disk form of a Store. Columns are parallel,
// one entry per row in stored order.
type snapshotPayload struct {
	Version int       `json:"version"`
	Origin  time.Time `json:"origin"`
	Signals []string  `json:"signals"`
	Count   int       `json:"count"`

	SignalColumn  []byte `json:"signal_column"`
	ElapsedColumn []byte `json:"elapsed_column"`
	ValueColumn   []byte `json:"value_column"`
	MissingColumn []byte `json:"missing_column"`
}

// Save writes the table to a snapshot file at path, replacing any existing file
func (s *Store) Save(path string) error {
	return s.SaveLevel(path, DefaultCompressionLevel)
}

// SaveLevel is Save with an explicit compression level (1-4)
func (s *Store) SaveLevel(path string, level int) error {
	data, err := s.MarshalSnapshot(level)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	if _, err := writer.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to install snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a Store back from a snapshot file written by Save
func LoadSnapshot(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, 0, err)
	}

	s, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, loadError(path, 0, err)
	}
	return s, nil
}

// MarshalSnapshot encodes the table into the snapshot byte format
func (s *Store) MarshalSnapshot(level int) ([]byte, error) {
	compressor, err := NewCompressor(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	defer compressor.Close()

	signals := s.index.Signals()
	ordinal := make(map[string]int64, len(signals))
	for i, signal := range signals {
		ordinal[signal] = int64(i)
	}

	count := len(s.samples)
	signalIdx := make([]int64, count)
	elapsed := make([]float64, count)
	values := make([]float64, count)
	missing := make([]bool, count)

	for i, sample := range s.samples {
		signalIdx[i] = ordinal[sample.Signal]
		elapsed[i] = sample.Elapsed
		v, ok := sample.Value.Float()
		values[i] = v
		missing[i] = !ok
	}

	payload := &snapshotPayload{
		Version:       snapshotVersion,
		Origin:        s.origin,
		Signals:       signals,
		Count:         count,
		SignalColumn:  compressor.EncodeInts(signalIdx),
		ElapsedColumn: compressor.EncodeFloats(elapsed),
		ValueColumn:   compressor.EncodeFloats(values),
		MissingColumn: compressor.EncodeFlags(missing),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return append([]byte(snapshotMagic), body...), nil
}

// UnmarshalSnapshot decodes bytes produced by MarshalSnapshot
func UnmarshalSnapshot(data []byte) (*Store, error) {
	body, ok := bytes.CutPrefix(data, []byte(snapshotMagic))
	if !ok {
		return nil, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}

	var payload snapshotPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if payload.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, payload.Version)
	}
	if payload.Count < 0 {
		return nil, fmt.Errorf("%w: negative row count", ErrBadSnapshot)
	}

	compressor, err := NewCompressor(DefaultCompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	defer compressor.Close()

	signalIdx, err := compressor.DecodeInts(payload.SignalColumn, payload.Count)
	if err != nil {
		return nil, fmt.Errorf("signal column: %w", err)
	}
	elapsed, err := compressor.DecodeFloats(payload.ElapsedColumn, payload.Count)
	if err != nil {
		return nil, fmt.Errorf("elapsed column: %w", err)
	}
	values, err := compressor.DecodeFloats(payload.ValueColumn, payload.Count)
	if err != nil {
		return nil, fmt.Errorf("value column: %w", err)
	}
	missing, err := compressor.DecodeFlags(payload.MissingColumn, payload.Count)
	if err != nil {
		return nil, fmt.Errorf("missing column: %w", err)
	}

	samples := make([]types.Sample, payload.Count)
	for i := range samples {
		idx := signalIdx[i]
		if idx < 0 || idx >= int64(len(payload.Signals)) {
			return nil, fmt.Errorf("%w: row %d refers to signal %d", ErrBadSnapshot, i, idx)
		}
		value := types.Number(values[i])
		if missing[i] {
			value = types.Missing()
		}
		samples[i] = types.Sample{
			Signal:  payload.Signals[idx],
			Elapsed: elapsed[i],
			Value:   value,
		}
	}

	return newStore(payload.Origin, samples), nil
}
