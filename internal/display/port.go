// Package display fans pipeline events out to display consumers. The
// actual drawing of the beam and target marker stays external; this
// package only delivers ordered updates to registered ports.
package display

import (
	"go.uber.org/zap"

	"github.com/banshee-data/radarscope/internal/ingest"
	"github.com/banshee-data/radarscope/internal/scope"
)

// Port is a display-side consumer of pipeline events. Methods are
// invoked from the dispatcher goroutine only, in event order, so
// implementations need no internal locking for that path.
type Port interface {
	// ConnectivityChanged reports a sensor link state transition.
	ConnectivityChanged(state ingest.ConnState)

	// ScanUpdate reports one decoded sweep. pos is nil when the
	// report carried no echoes; the beam still moves to angle.
	ScanUpdate(angle int, pos *scope.Position)
}

// LogPort writes pipeline events to a structured log. State changes
// log at Info, individual sweeps at Debug.
type LogPort struct {
	log *zap.Logger
}

// NewLogPort creates a LogPort, defaulting to a no-op logger when l
// is nil.
func NewLogPort(l *zap.Logger) *LogPort {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogPort{log: l}
}

func (p *LogPort) ConnectivityChanged(state ingest.ConnState) {
	p.log.Info("connectivity changed", zap.Stringer("state", state))
}

func (p *LogPort) ScanUpdate(angle int, pos *scope.Position) {
	if pos == nil {
		p.log.Debug("scan update", zap.Int("angle", angle))
		return
	}
	p.log.Debug("scan update",
		zap.Int("angle", angle),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y))
}
