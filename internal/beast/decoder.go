package beast

import (
	"bytes"

	"github.com/sirupsen/logrus"
)

// Beast protocol framing: every frame starts with a sync byte followed
// by a type byte; 0x1A bytes inside the frame body are doubled.
const (
	SyncByte = 0x1A

	TypeModeAC     = 0x31 // Mode A/C, 2 data bytes
	TypeModeSShort = 0x32 // Mode S short, 7 data bytes
	TypeModeSLong  = 0x33 // Mode S long, 14 data bytes
	TypeStatus     = 0x34 // receiver status, 2 data bytes
)

// Frame is one extracted Beast frame. Timestamp is the receiver's
// 48-bit 12 MHz counter; Data is the unescaped Mode S or Mode A/C body.
type Frame struct {
	Type      byte
	Timestamp uint64
	Signal    byte
	Data      []byte
}

// IsModeS reports whether the frame carries a Mode S message the ADS-B
// decoder can work with.
func (f *Frame) IsModeS() bool {
	return f.Type == TypeModeSShort || f.Type == TypeModeSLong
}

// Decoder extracts frames from a Beast byte stream. It keeps partial
// input between calls and resynchronizes on the next sync byte after
// garbage or a corrupt frame.
type Decoder struct {
	log *logrus.Logger
	buf []byte
}

func NewDecoder(log *logrus.Logger) *Decoder {
	return &Decoder{
		log: log,
		buf: make([]byte, 0, 4096),
	}
}

// Push appends raw feed bytes and returns every complete frame now
// available. Incomplete trailing input stays buffered for the next call.
func (d *Decoder) Push(data []byte) []*Frame {
	d.buf = append(d.buf, data...)

	var frames []*Frame
	for {
		frame, consumed := d.next()
		if consumed == 0 {
			break
		}
		d.buf = d.buf[consumed:]
		if frame != nil {
			frames = append(frames, frame)
		}
	}

	// A stream that never produces a frame must not grow without bound.
	if len(d.buf) > 1<<16 {
		d.log.WithField("buffered", len(d.buf)).Warn("discarding unparseable feed data")
		d.buf = d.buf[:0]
	}

	return frames
}

// next tries to extract one frame from the front of the buffer. It
// returns the number of bytes to drop; zero means more input is needed.
func (d *Decoder) next() (*Frame, int) {
	start := bytes.IndexByte(d.buf, SyncByte)
	if start < 0 {
		return nil, len(d.buf)
	}
	if start > 0 {
		return nil, start
	}
	if len(d.buf) < 2 {
		return nil, 0
	}

	bodyLen := frameLength(d.buf[1])
	if bodyLen == 0 {
		// Either a stray sync byte or the tail half of an escape pair.
		return nil, 1
	}

	body := make([]byte, 0, bodyLen)
	i := 2
	for len(body) < bodyLen {
		if i >= len(d.buf) {
			return nil, 0
		}
		b := d.buf[i]
		if b == SyncByte {
			if i+1 >= len(d.buf) {
				return nil, 0
			}
			if d.buf[i+1] != SyncByte {
				// Unescaped sync inside the body: the frame is corrupt,
				// resynchronize on the new sync byte.
				d.log.WithField("offset", i).Debug("corrupt frame, resynchronizing")
				return nil, i
			}
			i++ // skip the doubled escape byte
		}
		body = append(body, b)
		i++
	}

	var ts uint64
	for _, b := range body[:6] {
		ts = ts<<8 | uint64(b)
	}

	return &Frame{
		Type:      d.buf[1],
		Timestamp: ts,
		Signal:    body[6],
		Data:      body[7:],
	}, i
}

// frameLength is the unescaped body length (timestamp + signal + data)
// for a frame type, or zero for types this decoder does not know.
func frameLength(typ byte) int {
	switch typ {
	case TypeModeAC, TypeStatus:
		return 6 + 1 + 2
	case TypeModeSShort:
		return 6 + 1 + 7
	case TypeModeSLong:
		return 6 + 1 + 14
	default:
		return 0
	}
}
