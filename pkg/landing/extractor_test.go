package landing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vjranagit/touchdown/pkg/storage"
	"github.com/vjranagit/touchdown/pkg/types"
)

var baseTime = time.Date(2020, 1, 8, 11, 47, 38, 0, time.UTC)

type row struct {
	signal string
	at     float64 // seconds after baseTime
	value  string
}

// storeOf builds a store from rows in the given order. Include a row at 0 so
// that elapsed times equal the at values.
func storeOf(t *testing.T, rows ...row) *storage.Store {
	t.Helper()
	raw := make([]types.RawRow, len(rows))
	for i, r := range rows {
		at := baseTime.Add(time.Duration(r.at * float64(time.Second)))
		raw[i] = types.RawRow{
			Signal:    r.signal,
			Timestamp: at.Format("2006-01-02T15:04:05.000000Z"),
			Value:     r.value,
		}
	}
	s, err := storage.New(raw, types.DefaultSignals()...)
	require.NoError(t, err)
	return s
}

// landingRows is a compact landing: touchdown at 5, stopped at 8
func landingRows() []row {
	return []row{
		{types.SignalOnGround, 0, "0"},
		{types.SignalCalibratedAirspeed, 0, "100"},
		{types.SignalGroundSpeed, 0, "150"},
		{types.SignalDistanceRunwayEnd, 0, "900"},
		{types.SignalPitch, 0, "3"},

		{types.SignalCalibratedAirspeed, 2, "120"},
		{types.SignalOnGround, 2, "0"},

		{types.SignalOnGround, 5, "1"},
		{types.SignalPitch, 5, "4.25"},
		{types.SignalDistanceRunwayEnd, 5, "200"},
		{types.SignalGroundSpeed, 5, "80"},
		{types.SignalCalibratedAirspeed, 5, "90"},

		{types.SignalOnGround, 6, "1"},
		{types.SignalGroundSpeed, 8, "0.05"},
		{types.SignalDistanceRunwayEnd, 8, "60"},
		{types.SignalDistanceRunwayEnd, 9, "50"},
		{types.SignalGroundSpeed, 9, "0"},
	}
}

func TestTouchdownTime(t *testing.T) {
	s := storeOf(t,
		row{types.SignalOnGround, 0, "0"},
		row{types.SignalOnGround, 5, "1"},
		row{types.SignalOnGround, 6, "1"},
	)

	td, err := NewExtractor(s).TouchdownTime()
	require.NoError(t, err)
	require.Equal(t, 5.0, td)
}

func TestTouchdownTimeTakesFirstInStoredOrder(t *testing.T) {
	// Out-of-order source: the first match is returned, not the earliest
	s := storeOf(t,
		row{types.SignalOnGround, 0, "0"},
		row{types.SignalOnGround, 6, "1"},
		row{types.SignalOnGround, 5, "1"},
	)
	require.False(t, s.Ascending(types.SignalOnGround))

	td, err := NewExtractor(s).TouchdownTime()
	require.NoError(t, err)
	require.Equal(t, 6.0, td)
}

func TestStopTime(t *testing.T) {
	s := storeOf(t, landingRows()...)

	stop, err := NewExtractor(s).StopTime()
	require.NoError(t, err)
	require.Equal(t, 8.0, stop)

	stop, err = NewExtractor(s, WithStopThreshold(100)).StopTime()
	require.NoError(t, err)
	require.Equal(t, 5.0, stop)
}

func TestPitchAtTouchdown(t *testing.T) {
	s := storeOf(t, landingRows()...)

	pitch, err := NewExtractor(s).PitchAtTouchdown()
	require.NoError(t, err)
	require.Equal(t, 4.25, pitch)
}

func TestPitchJoinTolerance(t *testing.T) {
	rows := []row{
		{types.SignalOnGround, 0, "0"},
		{types.SignalOnGround, 5, "1"},
		{types.SignalPitch, 4.9996, "7"},
		{types.SignalPitch, 5.0003, "6"},
	}
	s := storeOf(t, rows...)

	pitch, err := NewExtractor(s).PitchAtTouchdown()
	require.NoError(t, err)
	require.Equal(t, 6.0, pitch, "nearest sample within tolerance wins")

	_, err = NewExtractor(s, WithJoinTolerance(0)).PitchAtTouchdown()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPitchMissingAtTouchdown(t *testing.T) {
	s := storeOf(t,
		row{types.SignalOnGround, 0, "0"},
		row{types.SignalOnGround, 5, "1"},
		row{types.SignalPitch, 5, ""},
	)

	_, err := NewExtractor(s).PitchAtTouchdown()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAverageAirborneSpeedSkipsMissing(t *testing.T) {
	s := storeOf(t,
		row{types.SignalCalibratedAirspeed, 0, "100"},
		row{types.SignalCalibratedAirspeed, 1, ""},
		row{types.SignalCalibratedAirspeed, 2, "120"},
		row{types.SignalOnGround, 0, "0"},
		row{types.SignalOnGround, 3, "1"},
		row{types.SignalCalibratedAirspeed, 3, "500"},
	)

	avg, err := NewExtractor(s).AverageAirborneSpeed()
	require.NoError(t, err)
	require.Equal(t, 110.0, avg)
}

func TestAverageAirborneSpeedAllMissing(t *testing.T) {
	s := storeOf(t,
		row{types.SignalCalibratedAirspeed, 0, "-"},
		row{types.SignalOnGround, 0, "0"},
		row{types.SignalOnGround, 3, "1"},
	)

	_, err := NewExtractor(s).AverageAirborneSpeed()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRolloutDistance(t *testing.T) {
	s := storeOf(t, landingRows()...)

	dist, err := NewExtractor(s).RolloutDistance()
	require.NoError(t, err)
	// 200 at touchdown (t=5) minus 50 at the first sample after stop (t=9), not 60 at t=8
	require.Equal(t, 150.0, dist)
}

func TestRolloutDistanceNoSampleAfterStop(t *testing.T) {
	rows := landingRows()[:len(landingRows())-2]
	s := storeOf(t, rows...)

	_, err := NewExtractor(s).RolloutDistance()
	var metricErr *MetricUnavailableError
	require.True(t, errors.As(err, &metricErr))
	require.Equal(t, MetricRollout, metricErr.Metric)
}

func TestSamplingRateBounds(t *testing.T) {
	s := storeOf(t,
		row{types.SignalGroundSpeed, 0, "1"},
		row{types.SignalGroundSpeed, 1, "1"},
		row{types.SignalGroundSpeed, 3, "1"},
		row{types.SignalGroundSpeed, 4, "1"},
		// a lone sample contributes no gaps
		row{types.SignalPitch, 2, "1"},
	)

	bounds, err := NewExtractor(s).SamplingRateBounds()
	require.NoError(t, err)
	require.Equal(t, 0.5, bounds.MinHz)
	require.Equal(t, 1.0, bounds.MaxHz)
}

func TestSamplingRateBoundsAcrossSignals(t *testing.T) {
	s := storeOf(t,
		row{types.SignalGroundSpeed, 0, "1"},
		row{types.SignalGroundSpeed, 0.5, "1"},
		row{types.SignalPitch, 0, "1"},
		row{types.SignalPitch, 4, "1"},
	)

	bounds, err := NewExtractor(s).SamplingRateBounds()
	require.NoError(t, err)
	require.Equal(t, 0.25, bounds.MinHz)
	require.Equal(t, 2.0, bounds.MaxHz)
}

func TestSamplingRateBoundsNoGaps(t *testing.T) {
	s := storeOf(t, row{types.SignalPitch, 0, "1"})

	_, err := NewExtractor(s).SamplingRateBounds()
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestEmptyStoreIsUnavailable(t *testing.T) {
	s, err := storage.New(nil, types.DefaultSignals()...)
	require.NoError(t, err)
	e := NewExtractor(s)

	queries := map[string]func() (float64, error){
		"touchdown": e.TouchdownTime,
		"stop":      e.StopTime,
		"pitch":     e.PitchAtTouchdown,
		"speed":     e.AverageAirborneSpeed,
		"rollout":   e.RolloutDistance,
		"rate": func() (float64, error) {
			b, err := e.SamplingRateBounds()
			return b.MinHz, err
		},
	}

	for name, query := range queries {
		t.Run(name, func(t *testing.T) {
			_, err := query()
			require.ErrorIs(t, err, ErrUnavailable)

			var metricErr *MetricUnavailableError
			require.ErrorAs(t, err, &metricErr)
			require.NotEmpty(t, metricErr.Reason)
		})
	}
}
