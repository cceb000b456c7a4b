package display

import (
	"sync"

	"github.com/banshee-data/radarscope/internal/ingest"
	"github.com/banshee-data/radarscope/internal/scope"
)

// Snapshot is the most recent pipeline output. Stale sweeps have no
// display value, so only this single value is ever retained.
type Snapshot struct {
	State    ingest.ConnState `json:"state"`
	Angle    int              `json:"angle"`
	Position *scope.Position  `json:"position,omitempty"`

	// HasScan is false until the first sweep arrives.
	HasScan bool `json:"has_scan"`
}

// Latest is a thread-safe latest-value cell for polling renderers.
// New values supersede old ones; nothing is queued.
type Latest struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewLatest creates an empty cell in StateDisconnected.
func NewLatest() *Latest {
	return &Latest{}
}

func (l *Latest) ConnectivityChanged(state ingest.ConnState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.State = state
}

func (l *Latest) ScanUpdate(angle int, pos *scope.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.Angle = angle
	l.snap.Position = pos
	l.snap.HasScan = true
}

// Snapshot returns the current value.
func (l *Latest) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}
