package ingest

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/radarscope/internal/timeutil"
)

// End to end over a real websocket: the production dialer against an
// in-process sensor that serves one report and holds the session.
func TestManager_EndToEndWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		report := `{"scanAngle":0,"pulseDuration":10,"echoResponses":[{"time":0.001,"power":0.5}]}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(report)); err != nil {
			return
		}
		// Hold the session open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	m := NewManager(ManagerConfig{
		Address:        "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReconnectDelay: time.Second,
		Projector:      testProjector(),
		Clock:          timeutil.RealClock{},
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	if ev := recvEvent(t, m.Events()); ev.State != StateConnecting {
		t.Fatalf("got %+v, want Connecting", ev)
	}
	if ev := recvEvent(t, m.Events()); ev.State != StateConnected {
		t.Fatalf("got %+v, want Connected", ev)
	}

	ev := recvEvent(t, m.Events())
	if ev.Kind != KindScan || ev.Angle != 0 {
		t.Fatalf("got %+v, want scan at angle 0", ev)
	}
	if ev.Position == nil {
		t.Fatal("expected a position")
	}
	if math.Abs(ev.Position.X-262.5) > 1e-9 || math.Abs(ev.Position.Y-150) > 1e-9 {
		t.Errorf("got (%v, %v), want (262.5, 150)", ev.Position.X, ev.Position.Y)
	}
}
