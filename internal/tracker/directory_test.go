package tracker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"track1090/internal/adsb"
)

func testDirectory(t *testing.T, cfg Config) *Directory {
	t.Helper()
	d := NewDirectory(cfg, testLogger(), nil)
	t.Cleanup(d.Stop)
	return d
}

func TestDirectoryCreatesOnFirstMessage(t *testing.T) {
	d := testDirectory(t, Config{})

	assert.Equal(t, 0, d.Count())
	_, ok := d.Lookup(0x4840D6)
	assert.False(t, ok)

	d.Dispatch(adsb.Identification{ICAO: 0x4840D6, Category: "A0", Callsign: "KLM1023"})

	require.Equal(t, 1, d.Count())
	a, ok := d.Lookup(0x4840D6)
	require.True(t, ok)
	assert.Equal(t, adsb.ICAO(0x4840D6), a.Addr())

	s := report(t, a)
	assert.Equal(t, "KLM1023", s.Callsign)
}

func TestDirectoryOneActorPerAddress(t *testing.T) {
	d := testDirectory(t, Config{})

	a1 := d.ResolveOrCreate(0x4840D6)
	a2 := d.ResolveOrCreate(0x4840D6)
	b := d.ResolveOrCreate(0xA05F21)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, d.Count())
}

func TestDirectoryRoutesByAddress(t *testing.T) {
	d := testDirectory(t, Config{})

	d.Dispatch(adsb.Identification{ICAO: 0x4840D6, Category: "A0", Callsign: "KLM1023"})
	d.Dispatch(adsb.Identification{ICAO: 0xA05F21, Category: "A5", Callsign: "AAL321"})

	snaps := d.Snapshots()
	require.Len(t, snaps, 2)

	byAddr := make(map[adsb.ICAO]Snapshot, 2)
	for _, s := range snaps {
		byAddr[s.ICAO] = s
	}
	assert.Equal(t, "KLM1023", byAddr[0x4840D6].Callsign)
	assert.Equal(t, "AAL321", byAddr[0xA05F21].Callsign)
}

func TestDirectoryEvictsStaleAircraft(t *testing.T) {
	d := testDirectory(t, Config{TickInterval: 5 * time.Millisecond, Timeout: 25 * time.Millisecond})

	d.Dispatch(adsb.Unsupported{ICAO: 0x4840D6, Class: adsb.ClassTest})
	require.Equal(t, 1, d.Count())

	require.Eventually(t, func() bool { return d.Count() == 0 },
		2*time.Second, 5*time.Millisecond)

	// A later message starts a fresh actor for the same address.
	d.Dispatch(adsb.Unsupported{ICAO: 0x4840D6, Class: adsb.ClassTest})
	assert.Equal(t, 1, d.Count())
}

func TestDirectoryStopDropsLaterMessages(t *testing.T) {
	d := NewDirectory(Config{}, testLogger(), nil)

	d.Dispatch(adsb.Unsupported{ICAO: 0x4840D6, Class: adsb.ClassTest})
	d.Stop()

	d.Dispatch(adsb.Unsupported{ICAO: 0xA05F21, Class: adsb.ClassTest})
	assert.Nil(t, d.ResolveOrCreate(0xA05F21))
	assert.Empty(t, d.Snapshots())
}

func TestDirectoryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	d := NewDirectory(Config{}, testLogger(), metrics)
	t.Cleanup(d.Stop)

	d.Dispatch(adsb.Identification{ICAO: 0x4840D6, Category: "A0", Callsign: "KLM1023"})
	d.Dispatch(adsb.InvalidFrame{ICAO: 0x4840D6})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AircraftTracked))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues("identification")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues("invalid")))
}

func TestDirectoryEvictionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	d := NewDirectory(Config{TickInterval: 5 * time.Millisecond, Timeout: 25 * time.Millisecond}, testLogger(), metrics)
	t.Cleanup(d.Stop)

	d.Dispatch(adsb.Unsupported{ICAO: 0x4840D6, Class: adsb.ClassTest})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.EvictionsTotal) == 1.0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.AircraftTracked))
}
