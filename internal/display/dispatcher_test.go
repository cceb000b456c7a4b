package display

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/radarscope/internal/ingest"
	"github.com/banshee-data/radarscope/internal/scope"
)

// recordingPort captures every delivery for inspection.
type recordingPort struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPort) ConnectivityChanged(state ingest.ConnState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "state:"+state.String())
}

func (p *recordingPort) ScanUpdate(angle int, pos *scope.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tag := "none"
	if pos != nil {
		tag = "target"
	}
	p.calls = append(p.calls, fmt.Sprintf("scan:%d:%s", angle, tag))
}

func (p *recordingPort) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

func TestDispatcher_OrderAndFanOut(t *testing.T) {
	events := make(chan ingest.Event, 8)
	events <- ingest.Event{Kind: ingest.KindConnectivity, State: ingest.StateConnecting}
	events <- ingest.Event{Kind: ingest.KindConnectivity, State: ingest.StateConnected}
	events <- ingest.Event{Kind: ingest.KindScan, Angle: 10, Position: &scope.Position{X: 1, Y: 2}}
	events <- ingest.Event{Kind: ingest.KindScan, Angle: 20}
	close(events)

	a := &recordingPort{}
	b := &recordingPort{}
	d := NewDispatcher(a, b)

	if err := d.Run(context.Background(), events); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"state:connecting", "state:connected", "scan:10:target", "scan:20:none"}
	for name, port := range map[string]*recordingPort{"a": a, "b": b} {
		if diff := cmp.Diff(want, port.recorded()); diff != "" {
			t.Errorf("port %s deliveries mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestDispatcher_ContextCancel(t *testing.T) {
	events := make(chan ingest.Event)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- NewDispatcher().Run(ctx, events)
	}()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDispatcher_ChannelClose(t *testing.T) {
	events := make(chan ingest.Event)
	close(events)

	if err := NewDispatcher(&recordingPort{}).Run(context.Background(), events); err != nil {
		t.Errorf("Run returned %v on channel close, want nil", err)
	}
}
