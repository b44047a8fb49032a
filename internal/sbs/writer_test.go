package sbs

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"track1090/internal/tracker"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func ptr[T any](v T) *T { return &v }

func TestWriteSnapshotFullState(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testLogger())

	err := w.WriteSnapshot(tracker.Snapshot{
		ICAO:         0x4840D6,
		Callsign:     "KLM1023",
		Category:     "A0",
		Messages:     12,
		Age:          3 * time.Second,
		Altitude:     ptr(38000),
		Latitude:     ptr(52.25720),
		Longitude:    ptr(3.91937),
		Velocity:     ptr(159.2),
		Heading:      ptr(182.88),
		VerticalRate: ptr(-832),
	})
	require.NoError(t, err)

	line := strings.TrimRight(buf.String(), "\n")
	fields := strings.Split(line, ",")
	require.Len(t, fields, 22)

	assert.Equal(t, "MSG", fields[0])
	assert.Equal(t, "3", fields[1])
	assert.Equal(t, "4840D6", fields[4])
	assert.Equal(t, "KLM1023", fields[10])
	assert.Equal(t, "38000", fields[11])
	assert.Equal(t, "159.2", fields[12])
	assert.Equal(t, "182.9", fields[13])
	assert.Equal(t, "52.25720", fields[14])
	assert.Equal(t, "3.91937", fields[15])
	assert.Equal(t, "-832", fields[16])
}

func TestWriteSnapshotOmitsUnobservedFields(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testLogger())

	err := w.WriteSnapshot(tracker.Snapshot{ICAO: 0xA05F21})
	require.NoError(t, err)

	fields := strings.Split(strings.TrimRight(buf.String(), "\n"), ",")
	require.Len(t, fields, 22)
	assert.Equal(t, "A05F21", fields[4])
	// Callsign through vertical rate are all unobserved.
	for i := 10; i <= 16; i++ {
		assert.Empty(t, fields[i])
	}
}

func TestWriteSnapshots(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testLogger())

	err := w.WriteSnapshots([]tracker.Snapshot{
		{ICAO: 0x4840D6},
		{ICAO: 0xA05F21},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestWriteSnapshotError(t *testing.T) {
	w := NewWriter(failingWriter{}, testLogger())
	err := w.WriteSnapshot(tracker.Snapshot{ICAO: 0x4840D6})
	assert.Error(t, err)
}
