// Package config loads mboxaddr settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all mboxaddr configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Parsing ParsingConfig `yaml:"parsing"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	MboxDir   string `yaml:"mbox_dir"`
	StaticDir string `yaml:"static_dir"` // empty disables static file serving
	EditMode  bool   `yaml:"edit_mode"`  // allow POST status updates
	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// ParsingConfig configures address parsing defaults.
type ParsingConfig struct {
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			MboxDir:   ".",
			StaticDir: "static",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks field values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Server.MboxDir == "" {
		return fmt.Errorf("config: server.mbox_dir is required")
	}
	return c.Logging.validate()
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MBOXADDR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MBOXADDR_MBOX_DIR"); v != "" {
		c.Server.MboxDir = v
	}
	if v := os.Getenv("MBOXADDR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
