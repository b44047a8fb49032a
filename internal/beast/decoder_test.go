package beast

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// buildFrame assembles an escaped Beast frame from its parts.
func buildFrame(typ byte, ts uint64, signal byte, data []byte) []byte {
	body := make([]byte, 0, 7+len(data))
	for i := 5; i >= 0; i-- {
		body = append(body, byte(ts>>(8*i)))
	}
	body = append(body, signal)
	body = append(body, data...)

	out := []byte{SyncByte, typ}
	for _, b := range body {
		out = append(out, b)
		if b == SyncByte {
			out = append(out, SyncByte)
		}
	}
	return out
}

func modeSLongData() []byte {
	return []byte{0x8D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x57, 0x60, 0x98}
}

func TestDecoderSingleFrame(t *testing.T) {
	d := NewDecoder(testLogger())

	frames := d.Push(buildFrame(TypeModeSLong, 0x0102030405, 0x5A, modeSLongData()))
	require.Len(t, frames, 1)

	f := frames[0]
	assert.Equal(t, byte(TypeModeSLong), f.Type)
	assert.Equal(t, uint64(0x0102030405), f.Timestamp)
	assert.Equal(t, byte(0x5A), f.Signal)
	assert.Equal(t, modeSLongData(), f.Data)
	assert.True(t, f.IsModeS())
}

func TestDecoderEscapedBytes(t *testing.T) {
	d := NewDecoder(testLogger())

	// Data containing sync bytes must survive the escape round trip.
	data := []byte{0x1A, 0x00, 0x1A, 0x1A, 0x05, 0x06, 0x07}
	raw := buildFrame(TypeModeSShort, 0x1A1A1A1A1A1A, 0x1A, data)

	frames := d.Push(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(0x1A1A1A1A1A1A), frames[0].Timestamp)
	assert.Equal(t, byte(0x1A), frames[0].Signal)
	assert.Equal(t, data, frames[0].Data)
}

func TestDecoderPartialInput(t *testing.T) {
	d := NewDecoder(testLogger())

	raw := buildFrame(TypeModeSLong, 42, 0x10, modeSLongData())
	split := len(raw) / 2

	assert.Empty(t, d.Push(raw[:split]))
	frames := d.Push(raw[split:])
	require.Len(t, frames, 1)
	assert.Equal(t, modeSLongData(), frames[0].Data)
}

func TestDecoderSkipsGarbage(t *testing.T) {
	d := NewDecoder(testLogger())

	raw := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, buildFrame(TypeModeSShort, 1, 2, []byte{1, 2, 3, 4, 5, 6, 7})...)
	raw = append(raw, 0xFF, 0xFE)
	raw = append(raw, buildFrame(TypeModeAC, 3, 4, []byte{8, 9})...)

	frames := d.Push(raw)
	require.Len(t, frames, 2)
	assert.Equal(t, byte(TypeModeSShort), frames[0].Type)
	assert.Equal(t, byte(TypeModeAC), frames[1].Type)
	assert.False(t, frames[1].IsModeS())
}

func TestDecoderByteAtATime(t *testing.T) {
	d := NewDecoder(testLogger())

	raw := buildFrame(TypeModeSLong, 0x112233445566, 0x30, modeSLongData())

	var frames []*Frame
	for _, b := range raw {
		frames = append(frames, d.Push([]byte{b})...)
	}
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(0x112233445566), frames[0].Timestamp)
	assert.Equal(t, modeSLongData(), frames[0].Data)
}

func TestDecoderBackToBackFrames(t *testing.T) {
	d := NewDecoder(testLogger())

	raw := append(buildFrame(TypeModeSShort, 1, 2, []byte{1, 2, 3, 4, 5, 6, 7}),
		buildFrame(TypeModeSLong, 3, 4, modeSLongData())...)

	frames := d.Push(raw)
	require.Len(t, frames, 2)
	assert.Equal(t, byte(TypeModeSShort), frames[0].Type)
	assert.Equal(t, byte(TypeModeSLong), frames[1].Type)
}
