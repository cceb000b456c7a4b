package main

import (
	"testing"
	"time"

	"github.com/banshee-data/radarscope/internal/config"
)

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Empty()
	applyFlagOverrides(cfg, "ws://sensor:9000", "127.0.0.1:8080", "debug", "console")

	if got := cfg.GetServerAddress(); got != "ws://sensor:9000" {
		t.Errorf("server = %q", got)
	}
	if got := cfg.GetStreamListenAddr(); got != "127.0.0.1:8080" {
		t.Errorf("listen = %q", got)
	}
	if got := cfg.GetLogLevel(); got != "debug" {
		t.Errorf("log level = %q", got)
	}
	if got := cfg.GetLogFormat(); got != "console" {
		t.Errorf("log format = %q", got)
	}
}

func TestApplyFlagOverrides_EmptyKeepsConfig(t *testing.T) {
	addr := "ws://sensor:9000"
	cfg := &config.Config{ServerAddress: &addr}
	applyFlagOverrides(cfg, "", "", "", "")

	if got := cfg.GetServerAddress(); got != addr {
		t.Errorf("server = %q, want the file value kept", got)
	}
	if got := cfg.GetReconnectDelay(); got != 5*time.Second {
		t.Errorf("reconnect delay = %s, want the default", got)
	}
	if got := cfg.GetStreamListenAddr(); got != "" {
		t.Errorf("listen = %q, want disabled", got)
	}
}
