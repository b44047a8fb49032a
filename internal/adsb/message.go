package adsb

import "fmt"

// ICAO is the 24-bit transponder address that identifies an airframe.
type ICAO uint32

func (a ICAO) String() string {
	return fmt.Sprintf("%06X", uint32(a))
}

// Message is a decoded Mode S report addressed to a single aircraft.
// The interface is deliberately open: upstream producers may hand the
// tracker shapes it does not recognize, and those must degrade to a
// logged no-op rather than an error.
type Message interface {
	Addr() ICAO
}

// InvalidFrame marks a frame whose CRC check failed. The address is the
// best-effort extraction from the damaged frame and may itself be wrong.
type InvalidFrame struct {
	ICAO ICAO
}

// Identification carries callsign and wake-vortex category (type codes 1-4).
type Identification struct {
	ICAO     ICAO
	Category string
	Callsign string
}

// AirbornePosition carries one CPR-encoded position fragment plus the
// barometric altitude decoded from the same frame. LatCPR/LonCPR are
// raw 17-bit values in [0, 131072). Altitude is nil when the altitude
// field is empty or uses an encoding the decoder does not handle.
type AirbornePosition struct {
	ICAO     ICAO
	Odd      bool
	LatCPR   uint32
	LonCPR   uint32
	Altitude *int
}

// VerticalRateRaw is the undecoded vertical-rate subfield shared by both
// velocity subtypes. Raw is biased by +1; Down and Geometric are the
// sign and source flags.
type VerticalRateRaw struct {
	Raw       uint16
	Down      bool
	Geometric bool
}

// GroundSpeed carries the east/west and north/south velocity components
// of a subtype 1/2 airborne velocity message. Component magnitudes are
// biased by +1; the flags select the negative direction.
type GroundSpeed struct {
	ICAO    ICAO
	EWRaw   uint16
	EWWest  bool
	NSRaw   uint16
	NSSouth bool
	VR      VerticalRateRaw
}

// Airspeed carries a subtype 3/4 airborne velocity message. HeadingRaw
// scales to degrees by 360/1024 and is meaningful only when
// HeadingValid is set. True selects true airspeed over indicated.
type Airspeed struct {
	ICAO         ICAO
	HeadingValid bool
	HeadingRaw   uint16
	True         bool
	SpeedRaw     uint16
	VR           VerticalRateRaw
}

// Class labels a recognized message class the tracker accepts but does
// not decode yet.
type Class int

const (
	ClassGNSSPosition Class = iota
	ClassSurfacePosition
	ClassAltitudeReply
	ClassIdentityReply
	ClassAllCallReply
	ClassACASShort
	ClassACASLong
	ClassOperationalStatus
	ClassTargetState
	ClassAircraftStatus
	ClassTest
)

var classNames = map[Class]string{
	ClassGNSSPosition:      "gnss_position",
	ClassSurfacePosition:   "surface_position",
	ClassAltitudeReply:     "altitude_reply",
	ClassIdentityReply:     "identity_reply",
	ClassAllCallReply:      "all_call_reply",
	ClassACASShort:         "acas_short",
	ClassACASLong:          "acas_long",
	ClassOperationalStatus: "operational_status",
	ClassTargetState:       "target_state",
	ClassAircraftStatus:    "aircraft_status",
	ClassTest:              "test",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Unsupported is a recognized message class that is accepted but
// produces no state change. Reserved for future decoding.
type Unsupported struct {
	ICAO  ICAO
	Class Class
}

func (m InvalidFrame) Addr() ICAO     { return m.ICAO }
func (m Identification) Addr() ICAO   { return m.ICAO }
func (m AirbornePosition) Addr() ICAO { return m.ICAO }
func (m GroundSpeed) Addr() ICAO      { return m.ICAO }
func (m Airspeed) Addr() ICAO         { return m.ICAO }
func (m Unsupported) Addr() ICAO      { return m.ICAO }
