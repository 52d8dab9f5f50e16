package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Build-time variables - inject via ldflags
// Example: go build -ldflags "-X main.defaultHost=https://stage.plug.dj"
var (
	defaultHost string // -X main.defaultHost=...
)

// Config is the CLI configuration, merged from defaults, an optional YAML
// file, the environment and flags, in that order.
type Config struct {
	Host      string            `yaml:"host"`
	AuthToken bool              `yaml:"auth_token"`
	Proxy     string            `yaml:"proxy"`
	Headers   map[string]string `yaml:"headers"`
	Email     string            `yaml:"email"`
	Password  string            `yaml:"password"`
	Workers   int               `yaml:"workers"`
}

// GetDefaultHost returns the host baked in at build time, falling back to
// PLUG_LOGIN_HOST. Empty means the library default.
func GetDefaultHost() string {
	if defaultHost != "" {
		return defaultHost
	}
	return os.Getenv("PLUG_LOGIN_HOST")
}

// LoadConfig reads path (if not empty) on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Host:    GetDefaultHost(),
		Workers: 4,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be a positive integer, got %d", cfg.Workers)
	}

	return cfg, nil
}

// parseHeaders turns "Name=value" or "Name: value" pairs into a map.
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			name, value, ok = strings.Cut(pair, ":")
		}
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected Name=value", pair)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
