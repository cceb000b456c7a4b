// Package ingest owns the sensor session: it dials the source, reads
// and decodes scan reports, projects them onto the scope, and emits
// the results as an ordered event stream. Any session loss leads to a
// fixed-delay retry; the loop runs until stopped.
package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banshee-data/radarscope/internal/scan"
	"github.com/banshee-data/radarscope/internal/scope"
	"github.com/banshee-data/radarscope/internal/timeutil"
)

// EventKind discriminates the two event variants.
type EventKind int

const (
	// KindConnectivity marks a ConnState transition; State is set.
	KindConnectivity EventKind = iota

	// KindScan marks one decoded scan report; Angle is set and
	// Position is nil when the report carried no echoes.
	KindScan
)

// Event is one pipeline output. Events are delivered in production
// order on the manager's channel; nothing is coalesced or reordered.
type Event struct {
	Kind     EventKind
	State    ConnState
	Angle    int
	Position *scope.Position
}

// Stats is a snapshot of the manager's counters.
type Stats struct {
	Sessions       uint64
	Messages       uint64
	DecodeFailures uint64
	Targets        uint64
	NoTargets      uint64
}

// ManagerConfig configures a Manager. Zero fields other than Address
// take defaults.
type ManagerConfig struct {
	// Address is the ws:// or wss:// URL of the sensor source.
	Address string

	// ReconnectDelay is waited between a session loss and the next
	// attempt (default 5s).
	ReconnectDelay time.Duration

	// StatsInterval is how often session counters are logged while
	// connected (default 1m).
	StatsInterval time.Duration

	// Projector maps decoded reports to display positions.
	Projector scope.Projector

	Dialer Dialer
	Clock  timeutil.Clock
	Logger *zap.Logger

	// EventBuffer is the event channel capacity (default 64).
	EventBuffer int
}

// Manager runs the connect/receive loop on its own goroutine. A
// Manager is single use: construct a new one after Stop.
type Manager struct {
	address       string
	delay         time.Duration
	statsInterval time.Duration
	projector     scope.Projector
	dialer        Dialer
	clock         timeutil.Clock
	log           *zap.Logger

	events  chan Event
	state   atomic.Int32
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sessions       atomic.Uint64
	messages       atomic.Uint64
	decodeFailures atomic.Uint64
	targets        atomic.Uint64
	noTargets      atomic.Uint64
}

// NewManager creates a stopped Manager in StateDisconnected.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Minute
	}
	if cfg.Dialer == nil {
		cfg.Dialer = NewWebSocketDialer(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}

	return &Manager{
		address:       cfg.Address,
		delay:         cfg.ReconnectDelay,
		statsInterval: cfg.StatsInterval,
		projector:     cfg.Projector,
		dialer:        cfg.Dialer,
		clock:         cfg.Clock,
		log:           cfg.Logger,
		events:        make(chan Event, cfg.EventBuffer),
	}
}

// Events returns the ordered event stream. The channel is closed
// after the loop exits.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// State returns the current connectivity state.
func (m *Manager) State() ConnState {
	return ConnState(m.state.Load())
}

// Stats returns a snapshot of the session counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Sessions:       m.sessions.Load(),
		Messages:       m.messages.Load(),
		DecodeFailures: m.decodeFailures.Load(),
		Targets:        m.targets.Load(),
		NoTargets:      m.noTargets.Load(),
	}
}

// Start launches the connect/receive loop.
func (m *Manager) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("ingest manager already running")
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.wg.Add(1)
	go m.run()
	return nil
}

// Stop requests shutdown and waits for the loop to exit. A pending
// dial, read or retry wait is unblocked promptly; once Stop returns
// no further events are produced and the event channel is closed.
func (m *Manager) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) run() {
	defer m.wg.Done()
	defer close(m.events)

	for {
		if !m.setState(StateConnecting) {
			return
		}

		conn, err := m.dialer.Dial(m.ctx, m.address)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			// Establishment failure follows the same path as a
			// post-connect loss: emit, delay, retry.
			m.log.Warn("sensor dial failed",
				zap.String("address", m.address),
				zap.Error(err))
			if !m.setState(StateDisconnected) {
				return
			}
			if !m.waitRetry() {
				return
			}
			continue
		}

		session := uuid.NewString()
		m.sessions.Add(1)
		m.log.Info("sensor session established",
			zap.String("session", session),
			zap.String("address", m.address))

		if !m.setState(StateConnected) {
			conn.Close()
			return
		}

		err = m.readLoop(conn, session)
		if m.ctx.Err() != nil {
			return
		}

		m.log.Warn("sensor session lost",
			zap.String("session", session),
			zap.Error(err))
		if !m.setState(StateDisconnected) {
			return
		}
		if !m.waitRetry() {
			return
		}
	}
}

// readLoop drains the session until it errors or the manager stops.
func (m *Manager) readLoop(conn Conn, session string) error {
	done := make(chan struct{})
	defer close(done)

	// A blocked read has no deadline; closing the session from the
	// side is what unblocks it on stop.
	go func() {
		select {
		case <-m.ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	ticker := m.clock.NewTicker(m.statsInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				m.logStats(session)
			case <-done:
				return
			case <-m.ctx.Done():
				return
			}
		}
	}()

	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m.handleMessage(payload)
	}
}

// handleMessage decodes and forwards one inbound message. A decode
// failure is counted and logged; it never ends the session.
func (m *Manager) handleMessage(payload []byte) {
	m.messages.Add(1)

	rep, err := scan.Decode(payload)
	if err != nil {
		m.decodeFailures.Add(1)
		m.log.Warn("dropping undecodable scan report",
			zap.Int("bytes", len(payload)),
			zap.Error(err))
		return
	}

	ev := Event{Kind: KindScan, State: StateConnected, Angle: rep.ScanAngle}
	if pos, ok := m.projector.Project(rep); ok {
		ev.Position = &pos
		m.targets.Add(1)
	} else {
		m.noTargets.Add(1)
	}
	m.emit(ev)
}

func (m *Manager) setState(s ConnState) bool {
	m.state.Store(int32(s))
	return m.emit(Event{Kind: KindConnectivity, State: s})
}

func (m *Manager) emit(ev Event) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.ctx.Done():
		return false
	}
}

func (m *Manager) waitRetry() bool {
	timer := m.clock.NewTimer(m.delay)
	defer timer.Stop()
	select {
	case <-timer.C():
		return true
	case <-m.ctx.Done():
		return false
	}
}

func (m *Manager) logStats(session string) {
	s := m.Stats()
	m.log.Info("session stats",
		zap.String("session", session),
		zap.Uint64("messages", s.Messages),
		zap.Uint64("decode_failures", s.DecodeFailures),
		zap.Uint64("targets", s.Targets),
		zap.Uint64("no_targets", s.NoTargets))
}
