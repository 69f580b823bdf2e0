package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vjranagit/touchdown/pkg/landing"
	"github.com/vjranagit/touchdown/pkg/storage"
	"github.com/vjranagit/touchdown/pkg/types"
)

func testSummary() *landing.Summary {
	return &landing.Summary{
		AverageSpeed:    landing.Metric{Name: landing.MetricAverageSpeed, Unit: "knot", Value: 118.26},
		Pitch:           landing.Metric{Name: landing.MetricPitch, Unit: "degree", Value: 3.04},
		Rollout:         landing.Metric{Name: landing.MetricRollout, Unit: "ft", Err: &landing.MetricUnavailableError{Metric: landing.MetricRollout, Reason: "no stop"}},
		MinSamplingRate: landing.Metric{Name: "min_sampling_rate", Unit: "Hz", Value: 0.5},
		MaxSamplingRate: landing.Metric{Name: "max_sampling_rate", Unit: "Hz", Value: 20},
	}
}

func TestLines(t *testing.T) {
	lines := Lines(testSummary())

	require.Equal(t, []string{
		"Average airspeed while the aircraft was in the air: 118.3 knot",
		"Pitch angle at touchdown: 3.0 degree",
		"Distance traveled on runway after touchdown: unavailable (rollout_distance unavailable: no stop)",
		"Min sampling rate: 0.5 Hz",
		"Max sampling rate: 20.0 Hz",
	}, lines)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testSummary()))
	require.Contains(t, buf.String(), "Pitch angle at touchdown: 3.0 degree\n")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, testSummary(), "light")

	out := buf.String()
	require.Contains(t, out, "METRIC")
	require.Contains(t, out, "118.3")
	require.Contains(t, out, "unavailable")
}

func TestWriteSignals(t *testing.T) {
	s, err := storage.New([]types.RawRow{
		{Signal: types.SignalPitch, Timestamp: "2020-01-08T11:47:38.000Z", Value: "1"},
		{Signal: types.SignalPitch, Timestamp: "2020-01-08T11:47:39.000Z", Value: ""},
		{Signal: "Custom/Signal", Timestamp: "2020-01-08T11:47:39.500Z", Value: "2"},
	}, types.SignalPitch, "Custom/Signal")
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteSignals(&buf, s, "")

	out := buf.String()
	require.Contains(t, out, "Pitch angle (degree)")
	require.Contains(t, out, "Custom/Signal")
	require.Contains(t, out, "1.500")
}
