package tracker

import (
	"sync"

	"github.com/sirupsen/logrus"

	"track1090/internal/adsb"
)

// Directory owns the address-to-aircraft lookup. It is the only piece
// of shared mutable state in the tracker: a mutex guards the map, and
// everything behind it is serialized inside each aircraft goroutine.
// At most one live aircraft exists per address.
type Directory struct {
	cfg     Config
	log     *logrus.Logger
	metrics *Metrics

	mu       sync.Mutex
	aircraft map[adsb.ICAO]*Aircraft
	closed   bool
}

// NewDirectory creates an empty directory. metrics may be nil.
func NewDirectory(cfg Config, log *logrus.Logger, metrics *Metrics) *Directory {
	return &Directory{
		cfg:      cfg.withDefaults(),
		log:      log,
		metrics:  metrics,
		aircraft: make(map[adsb.ICAO]*Aircraft),
	}
}

// Dispatch routes one decoded message to its aircraft, creating the
// aircraft on first contact. Messages arriving after Stop are dropped.
func (d *Directory) Dispatch(msg adsb.Message) {
	a := d.ResolveOrCreate(msg.Addr())
	if a == nil {
		return
	}
	if d.metrics != nil {
		d.metrics.MessagesTotal.WithLabelValues(messageLabel(msg)).Inc()
	}
	a.Dispatch(msg)
}

// ResolveOrCreate returns the live aircraft for addr, starting one if
// none exists. Returns nil after Stop.
func (d *Directory) ResolveOrCreate(addr adsb.ICAO) *Aircraft {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	if a, ok := d.aircraft[addr]; ok {
		return a
	}

	a := newAircraft(addr, d.cfg, d.log, d.metrics, d.remove)
	d.aircraft[addr] = a
	if d.metrics != nil {
		d.metrics.AircraftTracked.Set(float64(len(d.aircraft)))
	}
	d.log.WithField("icao", addr.String()).Info("tracking new aircraft")
	return a
}

// Lookup returns the live aircraft for addr, if any.
func (d *Directory) Lookup(addr adsb.ICAO) (*Aircraft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.aircraft[addr]
	return a, ok
}

// Count returns the number of tracked aircraft.
func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.aircraft)
}

// Snapshots collects a snapshot from every live aircraft. Aircraft that
// terminate while the sweep runs are skipped.
func (d *Directory) Snapshots() []Snapshot {
	d.mu.Lock()
	live := make([]*Aircraft, 0, len(d.aircraft))
	for _, a := range d.aircraft {
		live = append(live, a)
	}
	d.mu.Unlock()

	snaps := make([]Snapshot, 0, len(live))
	for _, a := range live {
		if s, ok := a.Report(); ok {
			snaps = append(snaps, s)
		}
	}
	return snaps
}

// Stop terminates every aircraft and refuses further dispatches. It
// returns once all aircraft goroutines have exited.
func (d *Directory) Stop() {
	d.mu.Lock()
	d.closed = true
	live := make([]*Aircraft, 0, len(d.aircraft))
	for _, a := range d.aircraft {
		live = append(live, a)
	}
	d.mu.Unlock()

	for _, a := range live {
		a.Stop()
	}
	for _, a := range live {
		<-a.Done()
	}
}

// remove is the termination callback handed to every aircraft. The
// identity check keeps a late callback from deleting a successor actor
// created for the same address.
func (d *Directory) remove(a *Aircraft, reason StopReason) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur, ok := d.aircraft[a.addr]; ok && cur == a {
		delete(d.aircraft, a.addr)
	}
	if d.metrics != nil {
		d.metrics.AircraftTracked.Set(float64(len(d.aircraft)))
		if reason == ReasonTimedOut {
			d.metrics.EvictionsTotal.Inc()
		}
	}
}

func messageLabel(msg adsb.Message) string {
	switch m := msg.(type) {
	case adsb.InvalidFrame:
		return "invalid"
	case adsb.Identification:
		return "identification"
	case adsb.AirbornePosition:
		return "airborne_position"
	case adsb.GroundSpeed:
		return "ground_speed"
	case adsb.Airspeed:
		return "airspeed"
	case adsb.Unsupported:
		return m.Class.String()
	default:
		return "unknown"
	}
}
