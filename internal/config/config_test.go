package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := *Default()
	cfg.ElevenLabs.AgentID = "agent_123"
	cfg.ElevenLabs.APIKey = "test-key"
	return cfg
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:        "missing agent id",
			mutate:      func(c *Config) { c.ElevenLabs.AgentID = "" },
			expectError: true,
			errorMsg:    "agent_id cannot be empty",
		},
		{
			name:        "missing api key",
			mutate:      func(c *Config) { c.ElevenLabs.APIKey = "" },
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
		{
			name:        "invalid port",
			mutate:      func(c *Config) { c.Server.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name:        "empty bind address",
			mutate:      func(c *Config) { c.Server.Address = "" },
			expectError: true,
			errorMsg:    "address cannot be empty",
		},
		{
			name:        "invalid setup timeout",
			mutate:      func(c *Config) { c.Server.SetupTimeout = 0 },
			expectError: true,
			errorMsg:    "setup_timeout",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
server:
  port: 9000
elevenlabs:
  agent_id: "agent_from_file"
  api_key: "key_from_file"
  first_message: "Hello there"
logging:
  level: "debug"
  format: "json"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.ElevenLabs.AgentID != "agent_from_file" {
		t.Errorf("Expected agent_from_file, got %q", cfg.ElevenLabs.AgentID)
	}
	if cfg.ElevenLabs.FirstMessage != "Hello there" {
		t.Errorf("Expected first message override, got %q", cfg.ElevenLabs.FirstMessage)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Logging.Level)
	}

	// Unset sections keep their defaults.
	if cfg.Server.Address != "0.0.0.0" {
		t.Errorf("Expected default address, got %q", cfg.Server.Address)
	}
	if cfg.ElevenLabs.BaseURL != "https://api.elevenlabs.io" {
		t.Errorf("Expected default base URL, got %q", cfg.ElevenLabs.BaseURL)
	}
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv(EnvAgentID, "agent_from_env")
	t.Setenv(EnvAPIKey, "key_from_env")
	t.Setenv(EnvPort, "9100")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ElevenLabs.AgentID != "agent_from_env" {
		t.Errorf("Expected agent_from_env, got %q", cfg.ElevenLabs.AgentID)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Expected port 9100, got %d", cfg.Server.Port)
	}
}

func TestLoadMissingSecretsFails(t *testing.T) {
	t.Setenv(EnvAgentID, "")
	t.Setenv(EnvAPIKey, "")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("Expected error without secrets")
	}
	if !strings.Contains(err.Error(), "agent_id") {
		t.Errorf("Expected agent_id error, got %q", err.Error())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
elevenlabs:
  agent_id: "agent_from_file"
  api_key: "key_from_file"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv(EnvAgentID, "agent_from_env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ElevenLabs.AgentID != "agent_from_env" {
		t.Errorf("Environment should override file, got %q", cfg.ElevenLabs.AgentID)
	}
	if cfg.ElevenLabs.APIKey != "key_from_file" {
		t.Errorf("File value should survive, got %q", cfg.ElevenLabs.APIKey)
	}
}

func TestInvalidPortEnv(t *testing.T) {
	t.Setenv(EnvAgentID, "agent")
	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvPort, "not-a-port")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("Expected error for invalid PORT")
	}
}
