// Package config provides configuration management for the Slateflow Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// Default values
	DefaultPort     = 8707
	DefaultLogLevel = "info"
	DefaultDataDir  = ".slateflow"

	// DefaultImportRoot is the engine content path under which resolved
	// performance takes are placed.
	DefaultImportRoot = "/Game/Cinematics/Performance"

	// Environment variable names
	EnvPort          = "SLATEFLOW_PORT"
	EnvLogLevel      = "SLATEFLOW_LOG_LEVEL"
	EnvDataDir       = "SLATEFLOW_DATA_DIR"
	EnvMappingsPath  = "SLATEFLOW_MAPPINGS_PATH"
	EnvImportRoot    = "SLATEFLOW_IMPORT_ROOT"
	EnvManifestDir   = "SLATEFLOW_MANIFEST_DIR"
	EnvWatchInterval = "SLATEFLOW_WATCH_INTERVAL"
	EnvHeadless      = "SLATEFLOW_HEADLESS"

	// Database filename
	DBFilename = "slateflow.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MappingsPath() string
	ImportRoot() string
	ManifestDir() string
	WatchInterval() time.Duration
	Headless() bool
}

// envSpec is the flat struct the env parser fills. EnvConfig wraps it so
// callers only see the Config interface.
type envSpec struct {
	Port          int           `env:"SLATEFLOW_PORT" envDefault:"8707"`
	LogLevel      string        `env:"SLATEFLOW_LOG_LEVEL" envDefault:"info"`
	DataDir       string        `env:"SLATEFLOW_DATA_DIR"`
	MappingsPath  string        `env:"SLATEFLOW_MAPPINGS_PATH"`
	ImportRoot    string        `env:"SLATEFLOW_IMPORT_ROOT" envDefault:"/Game/Cinematics/Performance"`
	ManifestDir   string        `env:"SLATEFLOW_MANIFEST_DIR"`
	WatchInterval time.Duration `env:"SLATEFLOW_WATCH_INTERVAL" envDefault:"30s"`
	Headless      bool          `env:"SLATEFLOW_HEADLESS" envDefault:"false"`
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	spec envSpec
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(&cfg.spec); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.spec.Port < 1 || cfg.spec.Port > 65535 {
		return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
	}
	if cfg.spec.WatchInterval <= 0 {
		return nil, fmt.Errorf("invalid %s: interval must be positive", EnvWatchInterval)
	}
	if cfg.spec.DataDir == "" {
		cfg.spec.DataDir = defaultDataDir()
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.spec.Port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.spec.LogLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.spec.DataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.spec.DataDir, DBFilename)
}

// MappingsPath returns the path to the mapping tables file.
// Empty means the embedded default tables are used.
func (c *EnvConfig) MappingsPath() string {
	return c.spec.MappingsPath
}

// ImportRoot returns the engine content path for resolved takes
func (c *EnvConfig) ImportRoot() string {
	return c.spec.ImportRoot
}

// ManifestDir returns the directory import manifests are written to
func (c *EnvConfig) ManifestDir() string {
	if c.spec.ManifestDir != "" {
		return c.spec.ManifestDir
	}
	return filepath.Join(c.spec.DataDir, "manifests")
}

// WatchInterval returns how often watched sources are polled for changes
func (c *EnvConfig) WatchInterval() time.Duration {
	return c.spec.WatchInterval
}

// Headless reports whether the agent runs without the system tray
func (c *EnvConfig) Headless() bool {
	return c.spec.Headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
