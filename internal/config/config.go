// Package config resolves process configuration from the environment
// and an optional YAML file. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingToken marks the one fatal configuration error: without an
// upstream credential the server must not start.
var ErrMissingToken = errors.New("config: UPSTREAM_TOKEN is required")

type Config struct {
	// Port the HTTP transports listen on.
	Port string `yaml:"port"`
	// UpstreamURL is the base endpoint of the analytics API.
	UpstreamURL string `yaml:"upstream_url"`
	// UpstreamToken is the bearer credential for the analytics API.
	UpstreamToken string `yaml:"upstream_token"`
	// Token protects the protocol endpoints; open when empty.
	Token string `yaml:"token"`
	// AuditDB is the sqlite path for the invocation log; empty disables
	// auditing.
	AuditDB string `yaml:"audit_db"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func defaults() Config {
	return Config{
		Port:        "3000",
		UpstreamURL: "https://api.revenuepulse.io/v1",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (if path is non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Port, "PORT")
	set(&cfg.UpstreamURL, "UPSTREAM_URL")
	set(&cfg.UpstreamToken, "UPSTREAM_TOKEN")
	set(&cfg.Token, "MCP_TOKEN")
	set(&cfg.AuditDB, "AUDIT_DB")
	set(&cfg.LogLevel, "LOG_LEVEL")
	set(&cfg.LogFormat, "LOG_FORMAT")
}

// Validate rejects configurations the server cannot run with. It is
// called before any listener or network I/O is set up.
func (c Config) Validate() error {
	if c.UpstreamToken == "" {
		return ErrMissingToken
	}
	if c.UpstreamURL == "" {
		return errors.New("config: upstream URL cannot be empty")
	}
	return nil
}
