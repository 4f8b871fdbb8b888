// Package config provides configuration management for the Clipdeck Agent.
// Configuration is loaded from an optional YAML file, then overridden by
// environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8688
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipdeck"

	// Environment variable names
	EnvPort     = "CLIPDECK_PORT"
	EnvLogLevel = "CLIPDECK_LOG_LEVEL"
	EnvDataDir  = "CLIPDECK_DATA_DIR"
	EnvHeadless = "CLIPDECK_HEADLESS"

	// Collaborator environment variable names
	EnvAIBaseURL = "CLIPDECK_AI_BASE_URL"
	EnvAIKey     = "CLIPDECK_AI_API_KEY"
	EnvAIModel   = "CLIPDECK_AI_MODEL"

	// Media toolchain environment variable names
	EnvFFmpegPath  = "CLIPDECK_FFMPEG"
	EnvFFprobePath = "CLIPDECK_FFPROBE"

	// Collaborator defaults
	DefaultAIBaseURL = "https://generativelanguage.googleapis.com"
	DefaultAIModel   = "gemini-2.5-flash"

	// Long-running video generation is polled at this interval.
	DefaultVideoPollInterval = 10 * time.Second

	// Config file name searched in the data dir and the working directory.
	ConfigFilename = "clipdeck.yaml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	AssetsDir() string
	ExportsDir() string
	Headless() bool
	AIBaseURL() string
	AIKey() string
	AIModel() string
	VideoPollInterval() time.Duration
	FFmpegPath() string
	FFprobePath() string
}

// fileConfig mirrors the YAML file layout.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	Headless bool   `yaml:"headless"`

	AI struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`

	FFmpeg struct {
		BinaryPath  string `yaml:"binary_path"`
		ProbeBinary string `yaml:"probe_binary"`
	} `yaml:"ffmpeg"`
}

// EnvConfig reads configuration from a YAML file and environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	aiBaseURL string
	aiKey     string
	aiModel   string

	ffmpegPath  string
	ffprobePath string
}

// New creates a new EnvConfig with defaults, YAML file values, and
// environment variable overrides, in that order of precedence.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:      DefaultPort,
		logLevel:  DefaultLogLevel,
		dataDir:   defaultDataDir(),
		aiBaseURL: DefaultAIBaseURL,
		aiModel:   DefaultAIModel,
	}

	if fc := loadFile(); fc != nil {
		if fc.Port > 0 {
			cfg.port = fc.Port
		}
		if fc.LogLevel != "" {
			cfg.logLevel = fc.LogLevel
		}
		if fc.DataDir != "" {
			cfg.dataDir = fc.DataDir
		}
		cfg.headless = fc.Headless
		if fc.AI.BaseURL != "" {
			cfg.aiBaseURL = fc.AI.BaseURL
		}
		if fc.AI.APIKey != "" {
			cfg.aiKey = fc.AI.APIKey
		}
		if fc.AI.Model != "" {
			cfg.aiModel = fc.AI.Model
		}
		cfg.ffmpegPath = fc.FFmpeg.BinaryPath
		cfg.ffprobePath = fc.FFmpeg.ProbeBinary
	}

	// Override port from environment
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

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if u := os.Getenv(EnvAIBaseURL); u != "" {
		cfg.aiBaseURL = u
	}
	if k := os.Getenv(EnvAIKey); k != "" {
		cfg.aiKey = k
	}
	if m := os.Getenv(EnvAIModel); m != "" {
		cfg.aiModel = m
	}

	if f := os.Getenv(EnvFFmpegPath); f != "" {
		cfg.ffmpegPath = f
	}
	if f := os.Getenv(EnvFFprobePath); f != "" {
		cfg.ffprobePath = f
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

// AssetsDir returns the directory holding bound session assets
func (c *EnvConfig) AssetsDir() string {
	return filepath.Join(c.dataDir, "assets")
}

// ExportsDir returns the directory holding finalized recordings
func (c *EnvConfig) ExportsDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// AIBaseURL returns the collaborator base URL
func (c *EnvConfig) AIBaseURL() string {
	return c.aiBaseURL
}

// AIKey returns the collaborator API key ("" disables the real client)
func (c *EnvConfig) AIKey() string {
	return c.aiKey
}

// AIModel returns the collaborator model identifier
func (c *EnvConfig) AIModel() string {
	return c.aiModel
}

func (c *EnvConfig) VideoPollInterval() time.Duration {
	return DefaultVideoPollInterval
}

// FFmpegPath returns the configured ffmpeg binary ("" means PATH lookup)
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// FFprobePath returns the configured ffprobe binary ("" means PATH lookup)
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// loadFile reads the first config file found, or nil when none exists.
func loadFile() *fileConfig {
	for _, path := range []string{
		ConfigFilename,
		filepath.Join(defaultDataDir(), ConfigFilename),
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			continue
		}
		return &fc
	}
	return nil
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
