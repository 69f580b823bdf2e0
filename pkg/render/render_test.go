package render

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vjranagit/touchdown/pkg/storage"
	"github.com/vjranagit/touchdown/pkg/types"
)

func testSeries(t *testing.T) []types.Series {
	t.Helper()
	s, err := storage.New([]types.RawRow{
		{Signal: types.SignalPitch, Timestamp: "2020-01-08T11:47:38.000Z", Value: "1.5"},
		{Signal: types.SignalOnGround, Timestamp: "2020-01-08T11:47:38.000Z", Value: "0"},
		{Signal: types.SignalPitch, Timestamp: "2020-01-08T11:47:38.500Z", Value: ""},
		{Signal: types.SignalPitch, Timestamp: "2020-01-08T11:47:39.000Z", Value: "2.5"},
		{Signal: types.SignalOnGround, Timestamp: "2020-01-08T11:47:40.000Z", Value: "0"},
		{Signal: types.SignalPitch, Timestamp: "2020-01-08T11:47:41.000Z", Value: "3"},
	}, types.DefaultSignals()...)
	require.NoError(t, err)

	return Panels(s, []string{types.SignalPitch, types.SignalOnGround, types.SignalAltitudeAGL, "Custom/Thing"})
}

func TestLabel(t *testing.T) {
	require.Equal(t, "Pitch angle (degree)", Label(types.SignalPitch))
	require.Equal(t, "Distance to runway end (ft)", Label(types.SignalDistanceRunwayEnd))
	require.Equal(t, "calibrated airspeed (knot)", Label(types.SignalCalibratedAirspeed))
	require.Equal(t, "Some/Unmapped", Label("Some/Unmapped"))

	for _, signal := range types.DefaultSignals() {
		require.NotEqual(t, signal, Label(signal), "default signal %s has no label", signal)
	}
}

func TestPanels(t *testing.T) {
	series := testSeries(t)
	require.Len(t, series, 4)
	require.Equal(t, "Pitch angle (degree)", series[0].Label)
	require.Len(t, series[0].Points, 4)

	xs, ys := series[0].XY()
	require.Equal(t, []float64{0, 1, 3}, xs)
	require.Equal(t, []float64{1.5, 2.5, 3}, ys)

	require.Empty(t, series[2].Points)
}

func TestNiceTicks(t *testing.T) {
	testCases := []struct {
		name   string
		lo, hi float64
		n      int
		want   []float64
	}{
		{"unit steps", 0, 5, 5, []float64{0, 1, 2, 3, 4, 5}},
		{"round up step", 0, 230, 5, []float64{0, 50, 100, 150, 200}},
		{"offset start", 3.2, 9.9, 5, []float64{4, 6, 8}},
		{"degenerate", 4, 4, 5, []float64{4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, niceTicks(tc.lo, tc.hi, tc.n))
		})
	}
}

func TestExtentWidensFlatSeries(t *testing.T) {
	b := extent([]float64{0, 1, 2}, []float64{0, 0, 0})
	require.Equal(t, 0.0, b.MinX)
	require.Equal(t, 2.0, b.MaxX)
	require.Less(t, b.MinY, b.MaxY)

	empty := extent(nil, nil)
	require.Less(t, empty.MinX, empty.MaxX)
}

func TestLayout(t *testing.T) {
	l := Layout{}
	require.Equal(t, 3, l.columns(7))
	require.Equal(t, 3, l.rows(7))
	require.Equal(t, 2, l.columns(2))
	require.Equal(t, 1, l.rows(2))
	require.Equal(t, DefaultXTicks, l.xTicks())
}

func TestPDFRender(t *testing.T) {
	var buf bytes.Buffer
	err := NewPDF(Layout{Title: "Telemetry"}).Render(&buf, testSeries(t))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestPDFSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.pdf")
	require.NoError(t, NewPDF(Layout{}).Save(path, testSeries(t)))
}

func TestPNGRender(t *testing.T) {
	sink := NewPNG(Layout{Columns: 2})
	sink.PanelWidth, sink.PanelHeight = 200, 150

	var buf bytes.Buffer
	require.NoError(t, sink.Render(&buf, testSeries(t)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 400, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())
}
