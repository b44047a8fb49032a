package adsb

import "math"

// Vertical rate direction and source labels reported in snapshots.
const (
	DirectionUp   = "up"
	DirectionDown = "down"

	SourceBarometric = "barometric"
	SourceGeometric  = "geometric"

	AirspeedTrue      = "true"
	AirspeedIndicated = "indicated"
)

// GroundVector converts the east/west and north/south velocity
// components of a ground-speed report into speed in knots and track in
// degrees. Component magnitudes are biased by +1 in the encoding; the
// direction flags select west/south. Track is measured clockwise from
// north in [0, 360). Both results are rounded to 2 decimals.
func GroundVector(ewRaw uint16, ewWest bool, nsRaw uint16, nsSouth bool) (speed, heading float64) {
	vew := float64(ewRaw) - 1
	if ewWest {
		vew = -vew
	}
	vns := float64(nsRaw) - 1
	if nsSouth {
		vns = -vns
	}

	speed = math.Sqrt(vew*vew + vns*vns)

	heading = math.Atan2(vew, vns) * 180.0 / math.Pi
	if heading < 0 {
		heading += 360
	}

	// Rounding a track just below 360 can land exactly on it.
	heading = round2(heading)
	if heading >= 360 {
		heading -= 360
	}

	return round2(speed), heading
}

// ClimbRate converts the raw vertical-rate subfield into feet per
// minute (64 ft/min granularity), a direction, and the reporting source.
func ClimbRate(vr VerticalRateRaw) (rate int, direction, source string) {
	rate = (int(vr.Raw) - 1) * 64

	direction = DirectionUp
	if vr.Down {
		direction = DirectionDown
	}

	source = SourceBarometric
	if vr.Geometric {
		source = SourceGeometric
	}

	return rate, direction, source
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
