package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vjranagit/touchdown/pkg/storage"
)

const exportCSV = `Uri,OriginTime,Value
Ownship/Flight/AircraftOnGround,2020-01-08T11:47:38.000Z,0
Ownship/Flight/Airspeed/Calibrated,2020-01-08T11:47:38.000Z,100
Ownship/Flight/AircraftOnGround,2020-01-08T11:47:39.000Z,0
Ownship/Flight/Airspeed/Calibrated,2020-01-08T11:47:39.000Z,120
Ownship/Flight/AircraftOnGround,2020-01-08T11:47:40.000Z,1
Ownship/Flight/Pitch/Angle,2020-01-08T11:47:40.000Z,3.5
Ownship/Flight/GroundSpeed/U,2020-01-08T11:47:40.000Z,60
StandardAircraft/DistanceToRunwayEnd,2020-01-08T11:47:40.000Z,800
Ownship/Flight/AircraftOnGround,2020-01-08T11:47:41.000Z,1
Ownship/Flight/GroundSpeed/U,2020-01-08T11:47:41.000Z,0.05
StandardAircraft/DistanceToRunwayEnd,2020-01-08T11:47:41.000Z,700
StandardAircraft/DistanceToRunwayEnd,2020-01-08T11:47:42.000Z,650
`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flight.csv")
	require.NoError(t, os.WriteFile(path, []byte(exportCSV), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReport(t *testing.T) {
	out, err := run(t, "report", writeExport(t))
	require.NoError(t, err)
	require.Equal(t, `Average airspeed while the aircraft was in the air: 110.0 knot
Pitch angle at touchdown: 3.5 degree
Distance traveled on runway after touchdown: 150.0 ft
Min sampling rate: 1.0 Hz
Max sampling rate: 1.0 Hz
`, out)
}

func TestReportTableAndPlot(t *testing.T) {
	plot := filepath.Join(t.TempDir(), "landing.png")
	out, err := run(t, "report", "--table", "--plot", plot, writeExport(t))
	require.NoError(t, err)
	require.Contains(t, out, "METRIC")
	require.Contains(t, out, "touchdown_time")

	info, err := os.Stat(plot)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestReportNeedsSource(t *testing.T) {
	_, err := run(t, "report")
	require.Error(t, err)
}

func TestPlotRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "plot", "-o", filepath.Join(t.TempDir(), "out.svg"), writeExport(t))
	require.ErrorContains(t, err, "unsupported plot format")
}

func TestPlotPDF(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.pdf")
	out, err := run(t, "plot", "-o", output, writeExport(t))
	require.NoError(t, err)
	require.Contains(t, out, output)
	require.FileExists(t, output)
}

func TestSignals(t *testing.T) {
	out, err := run(t, "signals", writeExport(t))
	require.NoError(t, err)
	require.Contains(t, out, "Ownship/Flight/AircraftOnGround")
	require.Contains(t, out, "Pitch angle (degree)")
}

func TestSignalFlagNarrowsInterest(t *testing.T) {
	out, err := run(t, "signals", "-s", "Ownship/Flight/Pitch/Angle", writeExport(t))
	require.NoError(t, err)
	require.Contains(t, out, "Ownship/Flight/Pitch/Angle")
	require.NotContains(t, out, "Ownship/Flight/AircraftOnGround")
}

func TestSnapshotRoundTrip(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "flight.snapshot")

	out, err := run(t, "snapshot", "save", writeExport(t), snapshot)
	require.NoError(t, err)
	require.Contains(t, out, "Saved 12 rows of 5 signals")

	out, err = run(t, "snapshot", "load", snapshot)
	require.NoError(t, err)
	require.Contains(t, out, "origin 2020-01-08T11:47:38Z")
	require.Contains(t, out, "StandardAircraft/DistanceToRunwayEnd")

	t.Setenv("TOUCHDOWN_SNAPSHOT", snapshot)
	out, err = run(t, "report", "--snapshot")
	require.NoError(t, err)
	require.Contains(t, out, "Pitch angle at touchdown: 3.5 degree")
}

func TestReportSnapshotArgument(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "named.snapshot")
	_, err := run(t, "snapshot", "save", writeExport(t), snapshot)
	require.NoError(t, err)

	t.Setenv("TOUCHDOWN_SNAPSHOT", filepath.Join(t.TempDir(), "absent.snapshot"))
	out, err := run(t, "report", "--snapshot", snapshot)
	require.NoError(t, err)
	require.Contains(t, out, "Distance traveled on runway after touchdown: 150.0 ft")

	_, err = run(t, "report", "--snapshot", writeExport(t))
	require.ErrorIs(t, err, storage.ErrBadSnapshot)
}

func TestCachedLoad(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache")
	export := writeExport(t)

	first, err := run(t, "report", "--cache-dir", cache, export)
	require.NoError(t, err)
	second, err := run(t, "report", "--cache-dir", cache, export)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "report", "--log-level", "loud", writeExport(t))
	require.Error(t, err)
}
