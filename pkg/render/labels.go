package render

import "github.com/vjranagit/touchdown/pkg/types"

// XAxisLabel is the label of every panel's time axis
const XAxisLabel = "Time (second)"

var labels = map[string]string{
	types.SignalAltitudeAGL:        "Altitude (ft)",
	types.SignalOutsideAirTemp:     "Air temperature (deg C)",
	types.SignalGroundSpeed:        "Ground speed (ft/sec)",
	types.SignalPitch:              "Pitch angle (degree)",
	types.SignalOnGround:           "Aircraft on ground flag",
	types.SignalDistanceRunwayEnd:  "Distance to runway end (ft)",
	types.SignalCalibratedAirspeed: "calibrated airspeed (knot)",
}

// Label returns the display label of a signal, or the signal-id itself when unmapped
func Label(signal string) string {
	if l, ok := labels[signal]; ok {
		return l
	}
	return signal
}
