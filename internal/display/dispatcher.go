package display

import (
	"context"

	"github.com/banshee-data/radarscope/internal/ingest"
)

// Dispatcher bridges the manager's event channel to a set of ports on
// a single consumer goroutine, preserving event order.
type Dispatcher struct {
	ports []Port
}

// NewDispatcher creates a dispatcher delivering to the given ports in
// registration order.
func NewDispatcher(ports ...Port) *Dispatcher {
	return &Dispatcher{ports: ports}
}

// Run consumes events until the channel closes (returns nil) or ctx
// is done (returns ctx.Err()). Call it on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context, events <-chan ingest.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.deliver(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) deliver(ev ingest.Event) {
	for _, p := range d.ports {
		switch ev.Kind {
		case ingest.KindConnectivity:
			p.ConnectivityChanged(ev.State)
		case ingest.KindScan:
			p.ScanUpdate(ev.Angle, ev.Position)
		}
	}
}
