package adsb

import "math"

// CPR latitude/longitude fields are 17 bits wide.
const cprMax = 131072.0

const (
	dLatEven = 360.0 / 60.0 // 4 * 15 zones
	dLatOdd  = 360.0 / 59.0 // 4 * 15 - 1 zones
)

// Frame is one CPR-encoded position fragment. Seq orders fragments of
// opposite parity against each other; the tracker assigns it from the
// per-aircraft message counter, so it is monotonic per address.
type Frame struct {
	LatCPR   uint32
	LonCPR   uint32
	Odd      bool
	Altitude *int
	Seq      uint64
}

// DecodePair runs the global CPR decode over a complementary pair of
// fragments. It is a pure function of the two fragments. ok is false
// when the candidate latitudes fall in different longitude-zone bands,
// which happens transiently while an aircraft crosses a zone boundary;
// the caller keeps its previous position and waits for fresher frames.
//
// Latitude normalization follows the northern-hemisphere convention of
// the reference behavior: candidates at or below 0 degrees wrap up by
// 360 rather than keeping their sign. Southern-hemisphere aircraft are
// a known limitation.
func DecodePair(even, odd Frame) (lat, lon float64, ok bool) {
	lat0 := float64(even.LatCPR) / cprMax
	lat1 := float64(odd.LatCPR) / cprMax
	lon0 := float64(even.LonCPR) / cprMax
	lon1 := float64(odd.LonCPR) / cprMax

	// Latitude index j.
	j := int(math.Floor(59*lat0 - 60*lat1 + 0.5))

	rlat0 := dLatEven * (float64(cprMod(j, 60)) + lat0)
	rlat1 := dLatOdd * (float64(cprMod(j, 59)) + lat1)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat0 <= 0 {
		rlat0 += 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}
	if rlat1 <= 0 {
		rlat1 += 360
	}

	// Both candidates must sit in the same latitude zone, or the pair
	// straddles a boundary and cannot be combined.
	if nl(rlat0) != nl(rlat1) {
		return 0, 0, false
	}

	// The fresher fragment is authoritative for latitude and selects
	// the parity used to reconstruct longitude.
	if even.Seq > odd.Seq {
		lat = rlat0
		ni := nZones(lat, 0)
		m := int(math.Floor(lon0*float64(nl(lat)-1) - lon1*float64(nl(lat)) + 0.5))
		lon = (360.0 / float64(ni)) * (float64(cprMod(m, ni)) + lon0)
	} else {
		lat = rlat1
		ni := nZones(lat, 1)
		m := int(math.Floor(lon0*float64(nl(lat)-1) - lon1*float64(nl(lat)) + 0.5))
		lon = (360.0 / float64(ni)) * (float64(cprMod(m, ni)) + lon1)
	}

	if lon > 180 {
		lon -= 360
	}

	return round5(lat), round5(lon), true
}

// cprMod is the always-positive modulus used throughout CPR decoding.
func cprMod(a, b int) int {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// nZones is the effective longitude-zone count for one parity, clamped
// to at least one zone near the poles.
func nZones(lat float64, odd int) int {
	n := nl(lat) - odd
	if n < 1 {
		n = 1
	}
	return n
}

// round5 rounds to 5 decimal places, roughly 1.1 m of latitude.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
