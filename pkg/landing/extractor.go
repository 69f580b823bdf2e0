package landing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vjranagit/touchdown/pkg/storage"
	"github.com/vjranagit/touchdown/pkg/types"
)

const (
	// DefaultStopThreshold is the ground speed below which the aircraft counts as stopped
	DefaultStopThreshold = 0.1

	// DefaultJoinTolerance bounds cross-signal time joins: half the
	// resolution of millisecond timestamps.
	DefaultJoinTolerance = 0.0005
)

// Metric names
const (
	MetricTouchdownTime = "touchdown_time"
	MetricStopTime      = "stop_time"
	MetricPitch         = "pitch_at_touchdown"
	MetricAverageSpeed  = "average_airborne_speed"
	MetricRollout       = "rollout_distance"
	MetricSamplingRate  = "sampling_rate"
)

// Source is the query surface the extractor needs from a signal table
type Source interface {
	Signals() []string
	FilterByID(signal string) []types.Point
	FilterByIDAndValue(signal string, pred storage.ValuePredicate) []types.Point
	FilterByIDAndTime(signal string, pred storage.TimePredicate) []types.Point
}

// Extractor derives landing-event metrics from a signal table.
// Nothing is cached; every call re-queries the source.
type Extractor struct {
	src           Source
	stopThreshold float64
	joinTolerance float64
}

// Option configures an Extractor
type Option func(*Extractor)

// WithStopThreshold sets the ground speed below which the aircraft is stopped
func WithStopThreshold(v float64) Option {
	return func(e *Extractor) { e.stopThreshold = v }
}

// WithJoinTolerance sets how far apart, in seconds, two signals' samples may be
// and still count as the same instant. Zero requires exact equality.
func WithJoinTolerance(v float64) Option {
	return func(e *Extractor) { e.joinTolerance = v }
}

// NewExtractor creates an extractor over src
func NewExtractor(src Source, opts ...Option) *Extractor {
	e := &Extractor{
		src:           src,
		stopThreshold: DefaultStopThreshold,
		joinTolerance: DefaultJoinTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TouchdownTime returns the elapsed time of the first on-ground sample reading 1.
// First means first in stored order, which is assumed time-ascending.
func (e *Extractor) TouchdownTime() (float64, error) {
	pts := e.src.FilterByIDAndValue(types.SignalOnGround, storage.ValueEquals(1))
	if len(pts) == 0 {
		return 0, unavailable(MetricTouchdownTime, "%s never reads 1", types.SignalOnGround)
	}
	return pts[0].Elapsed, nil
}

// StopTime returns the elapsed time of the first ground-speed sample below the stop threshold
func (e *Extractor) StopTime() (float64, error) {
	pts := e.src.FilterByIDAndValue(types.SignalGroundSpeed, storage.ValueLess(e.stopThreshold))
	if len(pts) == 0 {
		return 0, unavailable(MetricStopTime, "%s never drops below %g", types.SignalGroundSpeed, e.stopThreshold)
	}
	return pts[0].Elapsed, nil
}

// PitchAtTouchdown returns the pitch angle sampled at touchdown
func (e *Extractor) PitchAtTouchdown() (float64, error) {
	td, err := e.TouchdownTime()
	if err != nil {
		return 0, err
	}
	return e.valueAt(MetricPitch, types.SignalPitch, td)
}

// AverageAirborneSpeed returns the mean calibrated airspeed before touchdown.
// Missing readings are skipped.
func (e *Extractor) AverageAirborneSpeed() (float64, error) {
	td, err := e.TouchdownTime()
	if err != nil {
		return 0, err
	}

	pts := e.src.FilterByIDAndTime(types.SignalCalibratedAirspeed, storage.TimeBefore(td))
	if len(pts) == 0 {
		return 0, unavailable(MetricAverageSpeed, "no %s samples before touchdown at %gs", types.SignalCalibratedAirspeed, td)
	}

	speeds := make([]float64, 0, len(pts))
	for _, p := range pts {
		if v, ok := p.Value.Float(); ok {
			speeds = append(speeds, v)
		}
	}
	if len(speeds) == 0 {
		return 0, unavailable(MetricAverageSpeed, "every %s sample before touchdown is missing", types.SignalCalibratedAirspeed)
	}

	return stat.Mean(speeds, nil), nil
}

// RolloutDistance returns the runway distance covered between touchdown and
// the first distance sample after the aircraft stopped.
func (e *Extractor) RolloutDistance() (float64, error) {
	td, err := e.TouchdownTime()
	if err != nil {
		return 0, err
	}
	stop, err := e.StopTime()
	if err != nil {
		return 0, err
	}

	atTouchdown, err := e.valueAt(MetricRollout, types.SignalDistanceRunwayEnd, td)
	if err != nil {
		return 0, err
	}

	after := e.src.FilterByIDAndTime(types.SignalDistanceRunwayEnd, storage.TimeAfter(stop))
	if len(after) == 0 {
		return 0, unavailable(MetricRollout, "no %s sample after stop at %gs", types.SignalDistanceRunwayEnd, stop)
	}
	afterStop, ok := after[0].Value.Float()
	if !ok {
		return 0, unavailable(MetricRollout, "%s missing at %gs", types.SignalDistanceRunwayEnd, after[0].Elapsed)
	}

	return atTouchdown - afterStop, nil
}

// RateBounds are the slowest and fastest sampling rates seen in a table
type RateBounds struct {
	MinHz float64 // from the longest gap between consecutive samples
	MaxHz float64 // from the shortest gap
}

// SamplingRateBounds scans every signal's consecutive sample gaps and returns
// the reciprocal of the longest and shortest. Signals with fewer than two
// samples are skipped, as are zero gaps from duplicate timestamps.
func (e *Extractor) SamplingRateBounds() (RateBounds, error) {
	var gaps []float64
	for _, signal := range e.src.Signals() {
		pts := e.src.FilterByID(signal)
		if len(pts) < 2 {
			continue
		}

		times := make([]float64, len(pts))
		for i, p := range pts {
			times[i] = p.Elapsed
		}
		sort.Float64s(times)

		for i := 1; i < len(times); i++ {
			if d := times[i] - times[i-1]; d > 0 {
				gaps = append(gaps, d)
			}
		}
	}

	if len(gaps) == 0 {
		return RateBounds{}, unavailable(MetricSamplingRate, "no signal has two distinct sample times")
	}

	return RateBounds{
		MinHz: 1 / floats.Max(gaps),
		MaxHz: 1 / floats.Min(gaps),
	}, nil
}

// valueAt joins on time: the reading of signal nearest to t within the join tolerance
func (e *Extractor) valueAt(metric, signal string, t float64) (float64, error) {
	pts := e.src.FilterByIDAndTime(signal, storage.TimeWithin(t, e.joinTolerance))
	if len(pts) == 0 {
		return 0, unavailable(metric, "no %s sample within %gs of %gs", signal, e.joinTolerance, t)
	}

	nearest := pts[0]
	for _, p := range pts[1:] {
		if math.Abs(p.Elapsed-t) < math.Abs(nearest.Elapsed-t) {
			nearest = p
		}
	}

	v, ok := nearest.Value.Float()
	if !ok {
		return 0, unavailable(metric, "%s missing at %gs", signal, nearest.Elapsed)
	}
	return v, nil
}
