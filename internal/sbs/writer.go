package sbs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"track1090/internal/tracker"
)

// BaseStation (SBS-1) transmission type for extended squitter airborne
// position reports, the closest fit for a tracker state sweep.
const transmissionAirborne = 3

// Writer emits tracker snapshots as BaseStation MSG lines. Fields the
// tracker has not observed yet stay as empty columns, matching how
// SBS consumers expect missing data.
type Writer struct {
	mu        sync.Mutex
	w         io.Writer
	log       *logrus.Logger
	sessionID int
}

func NewWriter(w io.Writer, log *logrus.Logger) *Writer {
	return &Writer{
		w:         w,
		log:       log,
		sessionID: 1,
	}
}

// WriteSnapshot writes one MSG line for the snapshot.
func (w *Writer) WriteSnapshot(s tracker.Snapshot) error {
	now := time.Now().UTC()
	date := now.Format("2006/01/02")
	clock := now.Format("15:04:05.000")

	fields := []string{
		"MSG",
		strconv.Itoa(transmissionAirborne),
		strconv.Itoa(w.sessionID),
		"1",
		s.ICAO.String(),
		"1",
		date, clock,
		date, clock,
		s.Callsign,
		intField(s.Altitude),
		floatField(s.Velocity, 1),
		floatField(s.Heading, 1),
		floatField(s.Latitude, 5),
		floatField(s.Longitude, 5),
		intField(s.VerticalRate),
		"", // squawk
		"", // alert
		"", // emergency
		"", // SPI
		"", // on ground
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintln(w.w, strings.Join(fields, ",")); err != nil {
		return fmt.Errorf("failed to write SBS line: %w", err)
	}
	return nil
}

// WriteSnapshots writes one line per snapshot, stopping at the first
// write error.
func (w *Writer) WriteSnapshots(snaps []tracker.Snapshot) error {
	for _, s := range snaps {
		if err := w.WriteSnapshot(s); err != nil {
			return err
		}
	}
	return nil
}

func intField(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatField(p *float64, prec int) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', prec, 64)
}
