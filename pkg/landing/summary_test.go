package landing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vjranagit/touchdown/pkg/types"
)

func TestSummarize(t *testing.T) {
	s := storeOf(t, landingRows()...)

	sum := Summarize(NewExtractor(s))

	for _, m := range sum.Metrics() {
		require.True(t, m.Available(), "%s: %v", m.Name, m.Err)
	}
	require.Equal(t, 5.0, sum.TouchdownTime.Value)
	require.Equal(t, 8.0, sum.StopTime.Value)
	require.Equal(t, 110.0, sum.AverageSpeed.Value)
	require.Equal(t, 4.25, sum.Pitch.Value)
	require.Equal(t, 150.0, sum.Rollout.Value)
	require.Equal(t, "knot", sum.AverageSpeed.Unit)
	require.Len(t, sum.Metrics(), 7)
}

func TestSummarizePartial(t *testing.T) {
	var rows []row
	for _, r := range landingRows() {
		if r.signal != types.SignalGroundSpeed {
			rows = append(rows, r)
		}
	}
	s := storeOf(t, rows...)

	sum := Summarize(NewExtractor(s))

	require.False(t, sum.StopTime.Available())
	require.False(t, sum.Rollout.Available())
	require.ErrorIs(t, sum.Rollout.Err, ErrUnavailable)

	require.True(t, sum.TouchdownTime.Available())
	require.True(t, sum.Pitch.Available())
	require.True(t, sum.AverageSpeed.Available())
	require.True(t, sum.MinSamplingRate.Available())
}
