package landing

import (
	"log/slog"
)

// Metric is one computed quantity, or the reason it could not be computed
type Metric struct {
	Name  string
	Unit  string
	Value float64
	Err   error
}

// Available reports whether the metric has a value
func (m Metric) Available() bool {
	return m.Err == nil
}

// Summary collects every landing metric of one table
type Summary struct {
	TouchdownTime   Metric
	StopTime        Metric
	AverageSpeed    Metric
	Pitch           Metric
	Rollout         Metric
	MinSamplingRate Metric
	MaxSamplingRate Metric
}

// Metrics returns the summary's metrics in reporting order
func (s *Summary) Metrics() []Metric {
	return []Metric{
		s.TouchdownTime,
		s.StopTime,
		s.AverageSpeed,
		s.Pitch,
		s.Rollout,
		s.MinSamplingRate,
		s.MaxSamplingRate,
	}
}

// Summarize computes every metric. A metric that cannot be computed carries its
// error instead of aborting the rest.
func Summarize(e *Extractor) *Summary {
	s := &Summary{
		TouchdownTime: measure(MetricTouchdownTime, "s", e.TouchdownTime),
		StopTime:      measure(MetricStopTime, "s", e.StopTime),
		AverageSpeed:  measure(MetricAverageSpeed, "knot", e.AverageAirborneSpeed),
		Pitch:         measure(MetricPitch, "degree", e.PitchAtTouchdown),
		Rollout:       measure(MetricRollout, "ft", e.RolloutDistance),
	}

	bounds, err := e.SamplingRateBounds()
	s.MinSamplingRate = Metric{Name: "min_sampling_rate", Unit: "Hz", Value: bounds.MinHz, Err: err}
	s.MaxSamplingRate = Metric{Name: "max_sampling_rate", Unit: "Hz", Value: bounds.MaxHz, Err: err}

	for _, m := range s.Metrics() {
		if !m.Available() {
			slog.Warn("landing: metric unavailable", "metric", m.Name, "err", m.Err)
		}
	}
	return s
}

func measure(name, unit string, f func() (float64, error)) Metric {
	v, err := f()
	return Metric{Name: name, Unit: unit, Value: v, Err: err}
}
