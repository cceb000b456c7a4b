// Command radarsim runs a synthetic sensor source speaking the scan
// report wire protocol, so the pipeline can be exercised locally
// without a physical radar.
//
// Usage:
//
//	go run ./cmd/radarsim [flags]
//
// Flags:
//
//	-listen    Listen address (default :4000)
//	-interval  Delay between reports (default 50ms)
//	-step      Degrees the beam advances per report (default 2)
//	-seed      Jitter seed for reproducible streams (default 1)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/radarscope/internal/logging"
	"github.com/banshee-data/radarscope/internal/synthetic"
)

func main() {
	listen := flag.String("listen", ":4000", "Listen address")
	interval := flag.Duration("interval", 50*time.Millisecond, "Delay between reports")
	step := flag.Int("step", 2, "Degrees the beam advances per report")
	seed := flag.Int64("seed", 1, "Jitter seed")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	server := synthetic.NewServer(synthetic.ServerConfig{
		ListenAddr: *listen,
		Interval:   *interval,
		Generator:  synthetic.NewGenerator(synthetic.GeneratorConfig{Step: *step, Seed: *seed}),
		Logger:     logger,
	})
	if err := server.Start(); err != nil {
		logger.Fatal("failed to start synthetic sensor", zap.Error(err))
	}
	logger.Info("synthetic sensor running",
		zap.String("listen", *listen),
		zap.Duration("interval", *interval))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	server.Stop()
}
