// Package config provides configuration for the spotforge agent.
// Values come from environment variables with sensible defaults; a .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8690
	DefaultLogLevel = "info"
	DefaultDataDir  = ".spotforge"

	// Environment variable names
	EnvPort     = "SPOTFORGE_PORT"
	EnvLogLevel = "SPOTFORGE_LOG_LEVEL"
	EnvDataDir  = "SPOTFORGE_DATA_DIR"
	EnvFFmpeg   = "SPOTFORGE_FFMPEG"
	EnvFFprobe  = "SPOTFORGE_FFPROBE"
	EnvHeadless = "SPOTFORGE_HEADLESS"

	// Database filename
	DBFilename = "spotforge.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	WorkDir() string
	FFmpegBin() string
	FFprobeBin() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	ffmpeg   string
	ffprobe  string
	headless bool
}

// New creates a new EnvConfig with defaults and environment variable
// overrides. A missing .env file is not an error.
func New() (*EnvConfig, error) {
	godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.ffmpeg = os.Getenv(EnvFFmpeg)
	cfg.ffprobe = os.Getenv(EnvFFprobe)

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory holding ingested clip bytes
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, "media")
}

// WorkDir returns the engine's scratch working area directory
func (c *EnvConfig) WorkDir() string {
	return filepath.Join(c.dataDir, "work")
}

// FFmpegBin returns the ffmpeg binary path, empty meaning PATH lookup
func (c *EnvConfig) FFmpegBin() string {
	return c.ffmpeg
}

// FFprobeBin returns the ffprobe binary path, empty meaning PATH lookup
func (c *EnvConfig) FFprobeBin() string {
	return c.ffprobe
}

// Headless reports whether the tray UI is disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
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
