package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"track1090/internal/adsb"
)

// Default aging parameters. A contact that stays silent for longer than
// the timeout is evicted on its next aging tick.
const (
	DefaultTickInterval = 1 * time.Second
	DefaultTimeout      = 60 * time.Second
	defaultMailboxSize  = 64
)

// Config controls the per-aircraft aging cycle. The zero value picks
// the defaults; tests shrink the intervals.
type Config struct {
	TickInterval time.Duration
	Timeout      time.Duration
	MailboxSize  int
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MailboxSize <= 0 {
		c.MailboxSize = defaultMailboxSize
	}
	return c
}

// StopReason distinguishes the ways an aircraft goroutine ends.
type StopReason string

const (
	ReasonTimedOut StopReason = "timed out"
	ReasonStopped  StopReason = "stopped"
)

// Snapshot is a consistent copy of one aircraft's state. Pointer fields
// are nil until the corresponding report has been observed; they are
// never populated with sentinel values.
type Snapshot struct {
	ICAO     adsb.ICAO
	Callsign string
	Category string
	Messages uint64
	Age      time.Duration

	Altitude  *int
	Latitude  *float64
	Longitude *float64

	Velocity     *float64
	Heading      *float64
	AirspeedType string

	VerticalRate          *int
	VerticalRateDirection string
	VerticalRateSource    string
}

// state is the mutable aircraft record. It lives entirely on the actor
// goroutine; nothing outside run ever touches it.
type state struct {
	messages uint64
	category string
	callsign string

	altitude *int

	even *adsb.Frame
	odd  *adsb.Frame

	latitude  *float64
	longitude *float64

	velocity     *float64
	heading      *float64
	airspeedType string

	verticalRate *int
	vrDirection  string
	vrSource     string

	lastSeen       time.Time
	age            time.Duration
	timeoutEnabled bool
}

// Aircraft is the concurrent unit tracking a single address. All state
// mutation happens on its own goroutine; the exported methods only
// exchange messages with it, so callers may interleave freely without
// ever observing a torn update.
type Aircraft struct {
	addr    adsb.ICAO
	cfg     Config
	log     *logrus.Logger
	metrics *Metrics

	onTerminate func(*Aircraft, StopReason)

	// inbox carries adsb.Message values and the control commands below.
	// A single queue keeps reports and timeout toggles strictly ordered
	// against the message stream.
	inbox chan any

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type reportReq chan Snapshot

type setTimeoutCmd bool

func newAircraft(addr adsb.ICAO, cfg Config, log *logrus.Logger, metrics *Metrics, onTerminate func(*Aircraft, StopReason)) *Aircraft {
	a := &Aircraft{
		addr:        addr,
		cfg:         cfg,
		log:         log,
		metrics:     metrics,
		onTerminate: onTerminate,
		inbox:       make(chan any, cfg.MailboxSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go a.run()
	return a
}

// Addr returns the immutable address this aircraft was created for.
func (a *Aircraft) Addr() adsb.ICAO {
	return a.addr
}

// Dispatch hands one decoded message to the aircraft. Fire and forget:
// no result comes back, and messages sent after termination are dropped.
func (a *Aircraft) Dispatch(msg adsb.Message) {
	select {
	case a.inbox <- msg:
	case <-a.done:
	}
}

// Report returns a snapshot of the aircraft state, serialized behind
// any previously dispatched messages. ok is false once the aircraft has
// terminated.
func (a *Aircraft) Report() (Snapshot, bool) {
	reply := make(reportReq, 1)
	select {
	case a.inbox <- reply:
	case <-a.done:
		return Snapshot{}, false
	}

	select {
	case s := <-reply:
		return s, true
	case <-a.done:
		// The actor may have answered just before terminating.
		select {
		case s := <-reply:
			return s, true
		default:
			return Snapshot{}, false
		}
	}
}

// SetTimeoutEnabled toggles automatic eviction. Takes effect on the
// next aging tick.
func (a *Aircraft) SetTimeoutEnabled(enabled bool) {
	select {
	case a.inbox <- setTimeoutCmd(enabled):
	case <-a.done:
	}
}

// Stop requests ordinary shutdown. Safe to call more than once.
func (a *Aircraft) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Done is closed when the aircraft goroutine has terminated.
func (a *Aircraft) Done() <-chan struct{} {
	return a.done
}

func (a *Aircraft) run() {
	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()

	st := state{
		category:       "unknown",
		lastSeen:       time.Now(),
		timeoutEnabled: true,
	}

	for {
		select {
		case cmd := <-a.inbox:
			switch c := cmd.(type) {
			case reportReq:
				c <- snapshot(a.addr, &st)
			case setTimeoutCmd:
				st.timeoutEnabled = bool(c)
			case adsb.Message:
				a.apply(&st, c)
			}

		case <-ticker.C:
			st.age = time.Since(st.lastSeen)
			if st.timeoutEnabled && st.age > a.cfg.Timeout {
				a.finish(ReasonTimedOut)
				return
			}

		case <-a.stop:
			a.finish(ReasonStopped)
			return
		}
	}
}

// apply classifies one inbound message and folds it into the state.
// Every branch is a complete case: a malformed or unrecognized message
// degrades to a logged no-op, never a failure of the whole dispatch.
// The bookkeeping at the bottom runs unconditionally.
func (a *Aircraft) apply(st *state, msg adsb.Message) {
	switch m := msg.(type) {
	case adsb.InvalidFrame:
		a.log.WithField("icao", a.addr.String()).Warn("dropping frame with failed CRC")

	case adsb.Identification:
		st.category = m.Category
		st.callsign = m.Callsign

	case adsb.AirbornePosition:
		frame := adsb.Frame{
			LatCPR:   m.LatCPR,
			LonCPR:   m.LonCPR,
			Odd:      m.Odd,
			Altitude: m.Altitude,
			Seq:      st.messages,
		}
		if m.Odd {
			st.odd = &frame
		} else {
			st.even = &frame
		}
		// A frame without a decodable altitude keeps the previous one.
		if m.Altitude != nil {
			alt := *m.Altitude
			st.altitude = &alt
		}

		if st.even != nil && st.odd != nil {
			if lat, lon, ok := adsb.DecodePair(*st.even, *st.odd); ok {
				// The pair is assigned together or not at all.
				st.latitude, st.longitude = &lat, &lon
				if a.metrics != nil {
					a.metrics.PositionsDecoded.Inc()
				}
			}
		}

	case adsb.GroundSpeed:
		speed, heading := adsb.GroundVector(m.EWRaw, m.EWWest, m.NSRaw, m.NSSouth)
		rate, direction, source := adsb.ClimbRate(m.VR)
		st.velocity, st.heading = &speed, &heading
		st.airspeedType = ""
		st.verticalRate = &rate
		st.vrDirection, st.vrSource = direction, source

	case adsb.Airspeed:
		if m.HeadingValid {
			heading := float64(m.HeadingRaw) * 360.0 / 1024.0
			st.heading = &heading
		} else {
			st.heading = nil
		}
		if m.True {
			st.airspeedType = adsb.AirspeedTrue
		} else {
			st.airspeedType = adsb.AirspeedIndicated
		}
		velocity := float64(m.SpeedRaw)
		st.velocity = &velocity
		rate, direction, source := adsb.ClimbRate(m.VR)
		st.verticalRate = &rate
		st.vrDirection, st.vrSource = direction, source

	case adsb.Unsupported:
		a.log.WithFields(logrus.Fields{
			"icao":  a.addr.String(),
			"class": m.Class.String(),
		}).Debug("message class not decoded yet")

	default:
		a.log.WithFields(logrus.Fields{
			"icao": a.addr.String(),
			"type": fmt.Sprintf("%T", msg),
		}).Warn("unhandled message shape")
	}

	st.messages++
	st.lastSeen = time.Now()
	st.age = 0
}

// snapshot copies the state into fresh memory so the caller can hold it
// without racing the actor.
func snapshot(addr adsb.ICAO, st *state) Snapshot {
	s := Snapshot{
		ICAO:                  addr,
		Callsign:              st.callsign,
		Category:              st.category,
		Messages:              st.messages,
		Age:                   time.Since(st.lastSeen),
		AirspeedType:          st.airspeedType,
		VerticalRateDirection: st.vrDirection,
		VerticalRateSource:    st.vrSource,
	}
	s.Altitude = copyInt(st.altitude)
	s.Latitude = copyFloat(st.latitude)
	s.Longitude = copyFloat(st.longitude)
	s.Velocity = copyFloat(st.velocity)
	s.Heading = copyFloat(st.heading)
	s.VerticalRate = copyInt(st.verticalRate)
	return s
}

func (a *Aircraft) finish(reason StopReason) {
	a.log.WithFields(logrus.Fields{
		"icao":   a.addr.String(),
		"reason": string(reason),
	}).Info("aircraft terminated")
	if a.onTerminate != nil {
		a.onTerminate(a, reason)
	}
	close(a.done)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
