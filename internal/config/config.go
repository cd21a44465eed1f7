package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values. The two ElevenLabs
// secrets are required one way or the other; the service refuses to start
// without them.
const (
	EnvAgentID    = "ELEVENLABS_AGENT_ID"
	EnvAPIKey     = "ELEVENLABS_API_KEY"
	EnvPort       = "PORT"
	EnvPublicHost = "PUBLIC_HOST"
)

// Config represents the complete service configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP/WebSocket listener configuration
type ServerConfig struct {
	Port            int    `yaml:"port"`
	Address         string `yaml:"address"`
	SetupTimeout    int    `yaml:"setup_timeout"`    // seconds, credential fetch + agent dial
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

// ElevenLabsConfig contains agent credentials and per-conversation overrides
type ElevenLabsConfig struct {
	AgentID string `yaml:"agent_id"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// Optional conversation configuration override sent with the
	// initiation message. Empty fields are omitted from the wire.
	Prompt       string `yaml:"prompt"`
	FirstMessage string `yaml:"first_message"`
	Language     string `yaml:"language"`
}

// TwilioConfig contains the telephony-facing settings
type TwilioConfig struct {
	// PublicHost is the externally reachable host[:port] placed in the
	// TwiML <Stream> URL. When empty the webhook falls back to the
	// Host header of the incoming request.
	PublicHost string `yaml:"public_host"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is present.
// Secrets have no defaults and must come from the file or environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Address:         "0.0.0.0",
			SetupTimeout:    10,
			ShutdownTimeout: 10,
		},
		ElevenLabs: ElevenLabsConfig{
			BaseURL: "https://api.elevenlabs.io",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file, applies environment overrides and
// validates the result. A missing file is not an error: the service can
// run from defaults plus environment variables alone.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults + environment only.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAgentID); v != "" {
		c.ElevenLabs.AgentID = v
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		c.ElevenLabs.APIKey = v
	}

	if v := os.Getenv(EnvPublicHost); v != "" {
		c.Twilio.PublicHost = v
	}

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}

	return nil
}

// Validate performs validation of the complete configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.ElevenLabs.Validate(); err != nil {
		return fmt.Errorf("elevenlabs config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.SetupTimeout < 1 {
		return fmt.Errorf("setup_timeout must be at least 1 second, got %d", s.SetupTimeout)
	}

	if s.ShutdownTimeout < 1 {
		return fmt.Errorf("shutdown_timeout must be at least 1 second, got %d", s.ShutdownTimeout)
	}

	return nil
}

// Validate validates ElevenLabs configuration
func (e *ElevenLabsConfig) Validate() error {
	if e.AgentID == "" {
		return fmt.Errorf("agent_id cannot be empty (set %s)", EnvAgentID)
	}

	if e.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set %s)", EnvAPIKey)
	}

	if e.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetSetupTimeout returns the per-call setup timeout as a time.Duration
func (s *ServerConfig) GetSetupTimeout() time.Duration {
	return time.Duration(s.SetupTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a time.Duration
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}
