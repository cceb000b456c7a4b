package synthetic

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/banshee-data/radarscope/internal/scan"
)

// ServerConfig configures the synthetic sensor server.
type ServerConfig struct {
	// ListenAddr is the host:port to serve on.
	ListenAddr string

	// Interval is the delay between reports on each connection
	// (default 50ms).
	Interval time.Duration

	Generator *Generator
	Logger    *zap.Logger
}

// Server speaks the sensor wire protocol: each connecting client
// receives one encoded scan report per interval, exactly as a real
// source would deliver them.
type Server struct {
	config   ServerConfig
	log      *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	reportCount atomic.Uint64

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewServer creates a stopped server. A nil Generator gets defaults.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.Generator == nil {
		cfg.Generator = NewGenerator(GeneratorConfig{})
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{
		config: cfg,
		log:    cfg.Logger,
		stopCh: make(chan struct{}),
	}
}

// Handler returns the HTTP routes so tests can serve them without
// binding a port. The sensor protocol upgrades at the root path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	return mux
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("synthetic server already running")
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
		s.log.Info("synthetic sensor listening", zap.String("addr", lis.Addr().String()))
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			s.log.Error("synthetic server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop disconnects every client and shuts the server down.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)

	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.server.Close()
		}
	}

	s.wg.Wait()
	s.log.Info("synthetic sensor stopped")
}

// ReportCount returns the number of reports sent across all clients.
func (s *Server) ReportCount() uint64 {
	return s.reportCount.Load()
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("sensor upgrade failed", zap.Error(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer conn.Close()
		s.serveReports(conn)
	}()
}

func (s *Server) serveReports(conn *websocket.Conn) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			rep := s.config.Generator.Next()
			payload, err := scan.Encode(rep)
			if err != nil {
				s.log.Error("report encode failed", zap.Error(err))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			s.reportCount.Add(1)
		}
	}
}
