package display

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/banshee-data/radarscope/internal/ingest"
	"github.com/banshee-data/radarscope/internal/scope"
)

// StreamConfig holds configuration for the stream server.
type StreamConfig struct {
	// ListenAddr is the host:port to serve on.
	ListenAddr string

	// ClientBuffer is the per-client send queue length (default 16).
	// A client that falls this far behind starts losing frames.
	ClientBuffer int

	// Latest, when set, seeds new clients with the current snapshot
	// and backs the /scope/state endpoint.
	Latest *Latest

	Logger *zap.Logger
}

// StreamServer fans scan updates and connectivity changes out to
// external renderer clients over WebSocket. It implements Port.
//
// Slow clients drop frames rather than stalling the broadcast; a
// renderer only ever needs the newest sweep.
type StreamServer struct {
	config   StreamConfig
	log      *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	clients   map[string]*streamClient
	clientsMu sync.RWMutex

	frameCount    atomic.Uint64
	clientCount   atomic.Int32
	droppedFrames atomic.Uint64

	running atomic.Bool
	stopped atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type streamClient struct {
	id     string
	sendCh chan streamMessage
	doneCh chan struct{}
}

// streamMessage is one outbound JSON document.
type streamMessage struct {
	Type     string          `json:"type"`
	State    string          `json:"state,omitempty"`
	Angle    *int            `json:"angle,omitempty"`
	Position *scope.Position `json:"position,omitempty"`
}

// NewStreamServer creates a stopped stream server.
func NewStreamServer(cfg StreamConfig) *StreamServer {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = 16
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &StreamServer{
		config: cfg,
		log:    cfg.Logger,
		// Renderer clients may be browser pages served from another
		// origin; the stream carries no credentials.
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*streamClient),
		stopCh:  make(chan struct{}),
	}
}

// Handler returns the HTTP routes so tests can serve them without
// binding a port.
func (s *StreamServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scope/stream", s.handleStream)
	mux.HandleFunc("/scope/state", s.handleState)
	return mux
}

// Start binds the listen address and serves in the background.
func (s *StreamServer) Start() error {
	if s.stopped.Load() {
		return fmt.Errorf("stream server stopped")
	}
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("stream server already running")
	}

	lis, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	s.listener = lis
	s.server = &http.Server{Handler: s.Handler()}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("stream server listening", zap.String("addr", lis.Addr().String()))
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			s.log.Error("stream server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop disconnects every client and shuts the server down. It also
// tears down clients registered through an externally served Handler.
func (s *StreamServer) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)
	s.running.Store(false)

	s.clientsMu.Lock()
	for id, client := range s.clients {
		close(client.doneCh)
		delete(s.clients, id)
		s.clientCount.Add(-1)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.server.Close()
		}
	}

	s.wg.Wait()
	s.log.Info("stream server stopped")
}

// ConnectivityChanged broadcasts a link state transition.
func (s *StreamServer) ConnectivityChanged(state ingest.ConnState) {
	s.broadcast(streamMessage{Type: "connectivity", State: state.String()})
}

// ScanUpdate broadcasts one sweep.
func (s *StreamServer) ScanUpdate(angle int, pos *scope.Position) {
	a := angle
	s.broadcast(streamMessage{Type: "scan", Angle: &a, Position: pos})
}

func (s *StreamServer) broadcast(msg streamMessage) {
	s.frameCount.Add(1)

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		s.send(client, msg)
	}
}

// send queues a message for one client without ever blocking; a
// client that cannot keep up loses the frame.
func (s *StreamServer) send(client *streamClient, msg streamMessage) {
	select {
	case client.sendCh <- msg:
	default:
		s.droppedFrames.Add(1)
	}
}

func (s *StreamServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.stopped.Load() {
		http.Error(w, "stream server stopped", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream upgrade failed", zap.Error(err))
		return
	}

	client := s.addClient()
	if client == nil {
		// Stop won the race; this client has no teardown path.
		conn.Close()
		return
	}

	// Seed the new client so it renders without waiting for the
	// next transition. The writer is not running yet, so sends must
	// not block; a seed that does not fit the queue is just a drop.
	if s.config.Latest != nil {
		snap := s.config.Latest.Snapshot()
		s.send(client, streamMessage{Type: "connectivity", State: snap.State.String()})
		if snap.HasScan {
			a := snap.Angle
			s.send(client, streamMessage{Type: "scan", Angle: &a, Position: snap.Position})
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writeLoop(conn, client)
		s.removeClient(client.id)
	}()

	// Inbound payloads are ignored; the read loop only notices the
	// client going away.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(client.id)
				return
			}
		}
	}()
}

func (s *StreamServer) writeLoop(conn *websocket.Conn, client *streamClient) {
	defer conn.Close()
	for {
		select {
		case msg := <-client.sendCh:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-client.doneCh:
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *StreamServer) handleState(w http.ResponseWriter, r *http.Request) {
	if s.config.Latest == nil {
		http.Error(w, "state snapshot not configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.config.Latest.Snapshot()); err != nil {
		s.log.Warn("state encode failed", zap.Error(err))
	}
}

// addClient registers a new client, or returns nil when the server
// has stopped. The stopped re-check runs under clientsMu so a client
// is either rejected here or swept by Stop; it can never be left
// registered with nothing to tear it down.
func (s *StreamServer) addClient() *streamClient {
	client := &streamClient{
		id:     uuid.NewString(),
		sendCh: make(chan streamMessage, s.config.ClientBuffer),
		doneCh: make(chan struct{}),
	}

	s.clientsMu.Lock()
	if s.stopped.Load() {
		s.clientsMu.Unlock()
		return nil
	}
	s.clients[client.id] = client
	s.clientsMu.Unlock()

	s.clientCount.Add(1)
	s.log.Info("stream client connected",
		zap.String("client", client.id),
		zap.Int32("total", s.clientCount.Load()))
	return client
}

func (s *StreamServer) removeClient(id string) {
	s.clientsMu.Lock()
	client, ok := s.clients[id]
	if ok {
		close(client.doneCh)
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	if ok {
		s.clientCount.Add(-1)
		s.log.Info("stream client disconnected",
			zap.String("client", id),
			zap.Int32("remaining", s.clientCount.Load()))
	}
}

// StreamStats contains stream server counters.
type StreamStats struct {
	FrameCount    uint64
	ClientCount   int32
	DroppedFrames uint64
	Running       bool
}

// Stats returns current counters.
func (s *StreamServer) Stats() StreamStats {
	return StreamStats{
		FrameCount:    s.frameCount.Load(),
		ClientCount:   s.clientCount.Load(),
		DroppedFrames: s.droppedFrames.Load(),
		Running:       s.running.Load(),
	}
}
