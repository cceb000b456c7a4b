// Command radarscope runs the telemetry ingestion pipeline: it keeps
// a session to the sensor source, decodes scan reports, projects them
// onto the scope surface, and fans the results out to display
// consumers, optionally including a WebSocket stream for external
// renderers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/banshee-data/radarscope/internal/config"
	"github.com/banshee-data/radarscope/internal/display"
	"github.com/banshee-data/radarscope/internal/ingest"
	"github.com/banshee-data/radarscope/internal/logging"
	"github.com/banshee-data/radarscope/internal/scope"
)

var (
	configPath = flag.String("config", "", "Path to a JSON config file")
	server     = flag.String("server", "", "Sensor source URL (overrides config)")
	listen     = flag.String("listen", "", "Display stream listen address (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	logFormat  = flag.String("log-format", "", "Log format: json or console (overrides config)")
)

// applyFlagOverrides layers non-empty flag values over the file
// config.
func applyFlagOverrides(cfg *config.Config, server, listenAddr, level, format string) {
	if server != "" {
		cfg.ServerAddress = &server
	}
	if listenAddr != "" {
		cfg.StreamListenAddr = &listenAddr
	}
	if level != "" {
		cfg.LogLevel = &level
	}
	if format != "" {
		cfg.LogFormat = &format
	}
}

func main() {
	flag.Parse()

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	applyFlagOverrides(cfg, *server, *listen, *logLevel, *logFormat)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.GetLogLevel(), cfg.GetLogFormat())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	manager := ingest.NewManager(ingest.ManagerConfig{
		Address:        cfg.GetServerAddress(),
		ReconnectDelay: cfg.GetReconnectDelay(),
		Projector: scope.Projector{
			SurfaceRadius:    cfg.GetSurfaceRadius(),
			MaxRange:         cfg.GetMaxRangeUnits(),
			PropagationSpeed: cfg.GetPropagationSpeed(),
		},
		Logger: logger.Named("ingest"),
	})

	// Latest precedes the stream server so /scope/state is current
	// by the time a broadcast goes out.
	latest := display.NewLatest()
	ports := []display.Port{display.NewLogPort(logger.Named("display")), latest}

	if addr := cfg.GetStreamListenAddr(); addr != "" {
		stream := display.NewStreamServer(display.StreamConfig{
			ListenAddr: addr,
			Latest:     latest,
			Logger:     logger.Named("stream"),
		})
		if err := stream.Start(); err != nil {
			logger.Fatal("failed to start stream server", zap.Error(err))
		}
		defer stream.Stop()
		ports = append(ports, stream)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The dispatcher drains until the manager closes its channel,
	// so shutdown delivers every produced event.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := display.NewDispatcher(ports...).Run(context.Background(), manager.Events()); err != nil {
			logger.Error("dispatcher stopped", zap.Error(err))
		}
	}()

	if err := manager.Start(); err != nil {
		logger.Fatal("failed to start ingest manager", zap.Error(err))
	}
	logger.Info("radarscope started",
		zap.String("server", cfg.GetServerAddress()),
		zap.Duration("reconnect_delay", cfg.GetReconnectDelay()))

	<-ctx.Done()
	logger.Info("shutting down")
	manager.Stop()
	wg.Wait()
	logger.Info("graceful shutdown complete")
}
