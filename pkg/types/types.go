package types

import (
	"math"
	"strconv"
	"strings"
)

// Well-known telemetry signal URIs
const (
	SignalAltitudeAGL        = "Ownship/Flight/Altitude/AboveGroundLevel"
	SignalOutsideAirTemp     = "Ownship/Flight/OutsideAirTemperature"
	SignalGroundSpeed        = "Ownship/Flight/GroundSpeed/U"
	SignalPitch              = "Ownship/Flight/Pitch/Angle"
	SignalOnGround           = "Ownship/Flight/AircraftOnGround"
	SignalDistanceRunwayEnd  = "StandardAircraft/DistanceToRunwayEnd"
	SignalCalibratedAirspeed = "Ownship/Flight/Airspeed/Calibrated"
)

// DefaultSignals is the interest set analysed when the caller names none
func DefaultSignals() []string {
	return []string{
		SignalAltitudeAGL,
		SignalOutsideAirTemp,
		SignalGroundSpeed,
		SignalPitch,
		SignalOnGround,
		SignalDistanceRunwayEnd,
		SignalCalibratedAirspeed,
	}
}

// Value is a numeric telemetry reading or an explicit no-data marker.
// The zero Value is Missing.
type Value struct {
	v     float64
	valid bool
}

// Number wraps a numeric reading
func Number(v float64) Value {
	return Value{v: v, valid: true}
}

// Missing returns the no-data marker
func Missing() Value {
	return Value{}
}

// ParseValue converts a raw textual field. Blank or non-numeric input yields Missing.
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Missing()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return Missing()
	}
	return Number(f)
}

// Float returns the reading and whether it is present
func (v Value) Float() (float64, bool) {
	return v.v, v.valid
}

// IsMissing reports whether v carries no reading
func (v Value) IsMissing() bool {
	return !v.valid
}

func (v Value) String() string {
	if !v.valid {
		return "missing"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// RawRow is one unparsed record of the long-format export
type RawRow struct {
	Signal    string
	Timestamp string
	Value     string
}

// Sample represents one retained row of the signal table
type Sample struct {
	Signal  string
	Elapsed float64 // seconds since the earliest retained timestamp
	Value   Value
}

// Point is an (elapsed, value) pair returned by store queries
type Point struct {
	Elapsed float64
	Value   Value
}

// Series is a single signal's points, ready for rendering
type Series struct {
	Signal string
	Label  string
	Points []Point
}

// XY splits the series into parallel slices, dropping missing readings
func (s Series) XY() ([]float64, []float64) {
	xs := make([]float64, 0, len(s.Points))
	ys := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if f, ok := p.Value.Float(); ok {
			xs = append(xs, p.Elapsed)
			ys = append(ys, f)
		}
	}
	return xs, ys
}
