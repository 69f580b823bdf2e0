package storage

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/vjranagit/touchdown/pkg/types"
)

// TimestampLayout is the ISO-8601 UTC layout of the export's time field.
// Fractional seconds of any precision are accepted.
const TimestampLayout = "2006-01-02T15:04:05.999999999Z"

// ValuePredicate selects readings by value. Missing readings never reach it.
type ValuePredicate func(v float64) bool

// TimePredicate selects samples by elapsed seconds
type TimePredicate func(elapsed float64) bool

// ValueEquals matches readings exactly equal to x
func ValueEquals(x float64) ValuePredicate {
	return func(v float64) bool { return v == x }
}

// ValueLess matches readings strictly below x
func ValueLess(x float64) ValuePredicate {
	return func(v float64) bool { return v < x }
}

// ValueGreater matches readings strictly above x
func ValueGreater(x float64) ValuePredicate {
	return func(v float64) bool { return v > x }
}

// TimeEquals matches samples taken exactly at t
func TimeEquals(t float64) TimePredicate {
	return func(e float64) bool { return e == t }
}

// TimeBefore matches samples taken strictly before t
func TimeBefore(t float64) TimePredicate {
	return func(e float64) bool { return e < t }
}

// TimeAfter matches samples taken strictly after t
func TimeAfter(t float64) TimePredicate {
	return func(e float64) bool { return e > t }
}

// TimeWithin matches samples no further than tol seconds from t.
// A zero tolerance degenerates to TimeEquals.
func TimeWithin(t, tol float64) TimePredicate {
	if tol <= 0 {
		return TimeEquals(t)
	}
	return func(e float64) bool { return math.Abs(e-t) <= tol }
}

// Store is an immutable long-format signal table on a relative time axis
type Store struct {
	samples []types.Sample
	index   *Index
	origin  time.Time
}

// New builds a Store from raw rows, keeping only the named signals.
// Timestamps are made relative to the earliest retained timestamp.
func New(rows []types.RawRow, signals ...string) (*Store, error) {
	return build("rows", rows, nil, signals)
}

type parsedRow struct {
	signal string
	at     time.Time
	value  types.Value
}

// build parses the retained rows. lines maps each row to its position in the
// source for error reporting; nil means rows are numbered from 1.
func build(source string, rows []types.RawRow, lines []int, signals []string) (*Store, error) {
	interest := make(map[string]struct{}, len(signals))
	for _, s := range signals {
		interest[s] = struct{}{}
	}

	kept := make([]parsedRow, 0, len(rows))
	var origin time.Time

	for i, row := range rows {
		if _, ok := interest[row.Signal]; !ok {
			continue
		}

		line := i + 1
		if lines != nil {
			line = lines[i]
		}

		raw := strings.TrimSpace(row.Timestamp)
		if raw == "" {
			return nil, loadError(source, line, fmt.Errorf("%w: empty timestamp", ErrBadTimestamp))
		}
		at, err := time.Parse(TimestampLayout, raw)
		if err != nil {
			return nil, loadError(source, line, fmt.Errorf("%w: %q", ErrBadTimestamp, raw))
		}

		if len(kept) == 0 || at.Before(origin) {
			origin = at
		}

		kept = append(kept, parsedRow{
			signal: row.Signal,
			at:     at,
			value:  types.ParseValue(row.Value),
		})
	}

	samples := make([]types.Sample, len(kept))
	for i, r := range kept {
		samples[i] = types.Sample{
			Signal:  r.signal,
			Elapsed: r.at.Sub(origin).Seconds(),
			Value:   r.value,
		}
	}

	s := newStore(origin, samples)
	slog.Debug("storage: table built",
		"source", source, "rows", len(rows), "retained", len(samples), "signals", s.index.SignalCount())
	return s, nil
}

// newStore indexes samples and reports signals whose stored order is not
// time-ascending. Event queries take the first match in stored order.
func newStore(origin time.Time, samples []types.Sample) *Store {
	s := &Store{
		samples: samples,
		index:   NewIndex(),
		origin:  origin,
	}
	for pos, sample := range samples {
		s.index.Add(sample.Signal, pos)
	}

	for _, signal := range s.index.Signals() {
		if !s.Ascending(signal) {
			slog.Warn("storage: signal samples are not in ascending time order",
				"signal", signal)
		}
	}

	return s
}

// Origin returns the absolute time that elapsed zero corresponds to
func (s *Store) Origin() time.Time {
	return s.origin
}

// Len returns the number of retained rows
func (s *Store) Len() int {
	return len(s.samples)
}

// Signals returns the signal-ids present, in first-seen order
func (s *Store) Signals() []string {
	return s.index.Signals()
}

// Samples returns a copy of the table in stored order
func (s *Store) Samples() []types.Sample {
	return append([]types.Sample(nil), s.samples...)
}

// FilterByID returns every sample of a signal, in stored order
func (s *Store) FilterByID(signal string) []types.Point {
	return s.filter(signal, func(types.Sample) bool { return true })
}

// FilterByIDAndValue returns the samples of a signal whose reading satisfies pred
func (s *Store) FilterByIDAndValue(signal string, pred ValuePredicate) []types.Point {
	return s.filter(signal, func(sample types.Sample) bool {
		v, ok := sample.Value.Float()
		return ok && pred(v)
	})
}

// FilterByIDAndTime returns the samples of a signal whose elapsed time satisfies pred
func (s *Store) FilterByIDAndTime(signal string, pred TimePredicate) []types.Point {
	return s.filter(signal, func(sample types.Sample) bool {
		return pred(sample.Elapsed)
	})
}

func (s *Store) filter(signal string, keep func(types.Sample) bool) []types.Point {
	positions := s.index.Rows(signal)
	result := make([]types.Point, 0, len(positions))
	for _, pos := range positions {
		sample := s.samples[pos]
		if keep(sample) {
			result = append(result, types.Point{Elapsed: sample.Elapsed, Value: sample.Value})
		}
	}
	return result
}

// Ascending reports whether a signal's elapsed times never decrease in stored order
func (s *Store) Ascending(signal string) bool {
	positions := s.index.Rows(signal)
	for i := 1; i < len(positions); i++ {
		if s.samples[positions[i]].Elapsed < s.samples[positions[i-1]].Elapsed {
			return false
		}
	}
	return true
}

// Series returns a signal's points paired with a display label
func (s *Store) Series(signal, label string) types.Series {
	return types.Series{
		Signal: signal,
		Label:  label,
		Points: s.FilterByID(signal),
	}
}
