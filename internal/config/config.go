// Package config holds the file-based configuration for the scope
// client. Fields are pointers so a partial file overrides only what it
// names; the Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Defaults for the sensor link and scope geometry.
const (
	DefaultServerAddress    = "ws://localhost:4000"
	DefaultReconnectDelay   = 5 * time.Second
	DefaultSurfaceRadius    = 150.0
	DefaultMaxRangeUnits    = 200.0
	DefaultPropagationSpeed = 300000.0
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// Config is the root configuration document.
type Config struct {
	// ServerAddress is the ws:// or wss:// URL of the sensor source.
	ServerAddress *string `json:"server_address,omitempty"`

	// ReconnectDelay is a duration string like "5s" waited between
	// a connection loss and the next attempt.
	ReconnectDelay *string `json:"reconnect_delay,omitempty"`

	// Scope geometry.
	SurfaceRadius    *float64 `json:"surface_radius,omitempty"`
	MaxRangeUnits    *float64 `json:"max_range_units,omitempty"`
	PropagationSpeed *float64 `json:"propagation_speed,omitempty"`

	// StreamListenAddr is the host:port for the outbound display
	// stream. Empty disables the stream server.
	StreamListenAddr *string `json:"stream_listen_addr,omitempty"`

	LogLevel  *string `json:"log_level,omitempty"`
	LogFormat *string `json:"log_format,omitempty"`
}

func ptrString(v string) *string    { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and stay under the size cap. Fields omitted from the file
// keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every field that is set.
func (c *Config) Validate() error {
	if c.ServerAddress != nil {
		u, err := url.Parse(*c.ServerAddress)
		if err != nil {
			return fmt.Errorf("invalid server_address %q: %w", *c.ServerAddress, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("server_address must use ws or wss scheme, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("server_address %q has no host", *c.ServerAddress)
		}
	}

	if c.ReconnectDelay != nil && *c.ReconnectDelay != "" {
		d, err := time.ParseDuration(*c.ReconnectDelay)
		if err != nil {
			return fmt.Errorf("invalid reconnect_delay %q: %w", *c.ReconnectDelay, err)
		}
		if d <= 0 {
			return fmt.Errorf("reconnect_delay must be positive, got %s", d)
		}
	}

	if c.SurfaceRadius != nil && *c.SurfaceRadius <= 0 {
		return fmt.Errorf("surface_radius must be positive, got %f", *c.SurfaceRadius)
	}
	if c.MaxRangeUnits != nil && *c.MaxRangeUnits <= 0 {
		return fmt.Errorf("max_range_units must be positive, got %f", *c.MaxRangeUnits)
	}
	if c.PropagationSpeed != nil && *c.PropagationSpeed <= 0 {
		return fmt.Errorf("propagation_speed must be positive, got %f", *c.PropagationSpeed)
	}

	if c.LogLevel != nil {
		switch *c.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log_level must be debug, info, warn or error, got %q", *c.LogLevel)
		}
	}
	if c.LogFormat != nil {
		switch *c.LogFormat {
		case "json", "console":
		default:
			return fmt.Errorf("log_format must be json or console, got %q", *c.LogFormat)
		}
	}

	return nil
}

// GetServerAddress returns the sensor source URL or the default.
func (c *Config) GetServerAddress() string {
	if c.ServerAddress == nil || *c.ServerAddress == "" {
		return DefaultServerAddress
	}
	return *c.ServerAddress
}

// GetReconnectDelay parses and returns the reconnect delay.
func (c *Config) GetReconnectDelay() time.Duration {
	if c.ReconnectDelay == nil || *c.ReconnectDelay == "" {
		return DefaultReconnectDelay
	}
	d, err := time.ParseDuration(*c.ReconnectDelay)
	if err != nil || d <= 0 {
		return DefaultReconnectDelay
	}
	return d
}

// GetSurfaceRadius returns the surface_radius value or the default.
func (c *Config) GetSurfaceRadius() float64 {
	if c.SurfaceRadius == nil {
		return DefaultSurfaceRadius
	}
	return *c.SurfaceRadius
}

// GetMaxRangeUnits returns the max_range_units value or the default.
func (c *Config) GetMaxRangeUnits() float64 {
	if c.MaxRangeUnits == nil {
		return DefaultMaxRangeUnits
	}
	return *c.MaxRangeUnits
}

// GetPropagationSpeed returns the propagation_speed value or the default.
func (c *Config) GetPropagationSpeed() float64 {
	if c.PropagationSpeed == nil {
		return DefaultPropagationSpeed
	}
	return *c.PropagationSpeed
}

// GetStreamListenAddr returns the stream listen address, empty when
// the stream server is disabled.
func (c *Config) GetStreamListenAddr() string {
	if c.StreamListenAddr == nil {
		return ""
	}
	return *c.StreamListenAddr
}

// GetLogLevel returns the log_level value or the default.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return DefaultLogLevel
	}
	return *c.LogLevel
}

// GetLogFormat returns the log_format value or the default.
func (c *Config) GetLogFormat() string {
	if c.LogFormat == nil || *c.LogFormat == "" {
		return DefaultLogFormat
	}
	return *c.LogFormat
}
