package adsb

import (
	"fmt"
	"strings"
)

// 6-bit character set used in identification messages: space, A-Z, 0-9.
const callsignCharset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// DecodeFrame turns a raw 56- or 112-bit Mode S frame into a Message.
// Frames with a failed CRC come back as InvalidFrame rather than an
// error so the tracker can count and log them; an error means the frame
// does not match any shape this decoder knows.
func DecodeFrame(data []byte) (Message, error) {
	if len(data) != 7 && len(data) != 14 {
		return nil, fmt.Errorf("frame length %d, want 7 or 14 bytes", len(data))
	}

	df := data[0] >> 3

	switch df {
	case 17, 18:
		if len(data) != 14 {
			return nil, fmt.Errorf("DF%d frame truncated to %d bytes", df, len(data))
		}
		addr := ICAO(uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]))
		if checksum(data) != 0 {
			return InvalidFrame{ICAO: addr}, nil
		}
		return decodeExtendedSquitter(addr, data)

	case 11:
		addr := ICAO(uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]))
		// The low 7 parity bits of an all-call reply carry the
		// interrogator code and are excluded from the check.
		if checksum(data)&0xffff80 != 0 {
			return InvalidFrame{ICAO: addr}, nil
		}
		return Unsupported{ICAO: addr, Class: ClassAllCallReply}, nil

	case 0:
		return Unsupported{ICAO: overlayAddress(data), Class: ClassACASShort}, nil
	case 16:
		return Unsupported{ICAO: overlayAddress(data), Class: ClassACASLong}, nil
	case 4, 20:
		return Unsupported{ICAO: overlayAddress(data), Class: ClassAltitudeReply}, nil
	case 5, 21:
		return Unsupported{ICAO: overlayAddress(data), Class: ClassIdentityReply}, nil
	}

	return nil, fmt.Errorf("unknown downlink format %d", df)
}

// decodeExtendedSquitter classifies a CRC-clean DF17/18 frame by type code.
func decodeExtendedSquitter(addr ICAO, data []byte) (Message, error) {
	me := data[4:11]
	tc := me[0] >> 3

	switch {
	case tc >= 1 && tc <= 4:
		return Identification{
			ICAO:     addr,
			Category: wakeCategory(tc, me[0]&0x07),
			Callsign: decodeCallsign(me),
		}, nil

	case tc >= 5 && tc <= 8:
		return Unsupported{ICAO: addr, Class: ClassSurfacePosition}, nil

	case tc >= 9 && tc <= 18:
		pos := AirbornePosition{
			ICAO:   addr,
			Odd:    me[2]>>2&0x01 == 1,
			LatCPR: (uint32(me[2]&0x03)<<15 | uint32(me[3])<<7 | uint32(me[4])>>1) & 0x1ffff,
			LonCPR: (uint32(me[4]&0x01)<<16 | uint32(me[5])<<8 | uint32(me[6])) & 0x1ffff,
		}
		if alt, ok := decodeAC12(me); ok {
			pos.Altitude = &alt
		}
		return pos, nil

	case tc == 19:
		return decodeVelocity(addr, me)

	case tc >= 20 && tc <= 22:
		return Unsupported{ICAO: addr, Class: ClassGNSSPosition}, nil
	case tc == 23:
		return Unsupported{ICAO: addr, Class: ClassTest}, nil
	case tc == 28:
		return Unsupported{ICAO: addr, Class: ClassAircraftStatus}, nil
	case tc == 29:
		return Unsupported{ICAO: addr, Class: ClassTargetState}, nil
	case tc == 31:
		return Unsupported{ICAO: addr, Class: ClassOperationalStatus}, nil
	}

	return nil, fmt.Errorf("unknown type code %d", tc)
}

// decodeVelocity splits TC19 into its ground-speed and airspeed subtypes.
func decodeVelocity(addr ICAO, me []byte) (Message, error) {
	subtype := me[0] & 0x07

	vr := VerticalRateRaw{
		Raw:       getBits(me, 38, 46),
		Down:      getBits(me, 37, 37) == 1,
		Geometric: getBits(me, 36, 36) == 1,
	}

	switch subtype {
	case 1, 2:
		return GroundSpeed{
			ICAO:    addr,
			EWRaw:   getBits(me, 15, 24),
			EWWest:  getBits(me, 14, 14) == 1,
			NSRaw:   getBits(me, 26, 35),
			NSSouth: getBits(me, 25, 25) == 1,
			VR:      vr,
		}, nil
	case 3, 4:
		return Airspeed{
			ICAO:         addr,
			HeadingValid: getBits(me, 14, 14) == 1,
			HeadingRaw:   getBits(me, 15, 24),
			True:         getBits(me, 25, 25) == 1,
			SpeedRaw:     getBits(me, 26, 35),
			VR:           vr,
		}, nil
	}

	return nil, fmt.Errorf("unknown velocity subtype %d", subtype)
}

// decodeCallsign extracts the eight 6-bit characters from an
// identification ME field. Returns empty when the field contains
// characters outside the A-Z/0-9/space set.
func decodeCallsign(me []byte) string {
	var cs [8]byte
	for i := 0; i < 8; i++ {
		cs[i] = callsignCharset[getBits(me, 9+6*i, 14+6*i)]
	}

	for _, c := range cs {
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == ' ') {
			return ""
		}
	}
	return strings.TrimSpace(string(cs[:]))
}

// wakeCategory maps the type code and category subfield to the usual
// two-character label (A0..A7, B0.., C0.., D0..).
func wakeCategory(tc, ca byte) string {
	sets := map[byte]byte{4: 'A', 3: 'B', 2: 'C', 1: 'D'}
	set, ok := sets[tc]
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%c%d", set, ca)
}

// decodeAC12 decodes the 12-bit altitude field of an airborne position
// ME. Only the 25-foot Q-bit encoding is handled; an all-zero field
// means no altitude, and the legacy Gillham coding is not decoded.
// ok is false in both of those cases.
func decodeAC12(me []byte) (alt int, ok bool) {
	altCode := uint16(me[1])<<4 | uint16(me[2])>>4

	if altCode&0x10 == 0 {
		return 0, false
	}

	n := (altCode&0x0fe0)>>1 | altCode&0x000f
	return int(n)*25 - 1000, true
}

// getBits extracts an up-to-16-bit field from me using the 1-based bit
// numbering of the ADS-B specifications.
func getBits(me []byte, first, last int) uint16 {
	var v uint32
	for bit := first; bit <= last; bit++ {
		byteIdx := (bit - 1) / 8
		bitIdx := 7 - (bit-1)%8
		v = v<<1 | uint32(me[byteIdx]>>bitIdx&0x01)
	}
	return uint16(v)
}
