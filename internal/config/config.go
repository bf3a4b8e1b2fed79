// Copyright 2026 Kyle Keefer
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads hiro configuration from the XDG config directory.
// Configuration is loaded explicitly at startup and returns an error on
// failure; there is no lazy re-initialization on access.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hiro configuration.
type Config struct {
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
	HTTP   HTTP   `yaml:"http"`
	MCP    MCP    `yaml:"mcp"`
}

// Server configures the dashboard daemon.
type Server struct {
	// Listen is the address the dashboard binds to.
	Listen string `yaml:"listen"`

	// DatabasePath is the sqlite database file. Empty uses the XDG data
	// directory.
	DatabasePath string `yaml:"database_path"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Log configures logging output.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTP configures the outbound request tool.
type HTTP struct {
	// ProxyURL routes every outbound request through the given proxy.
	ProxyURL string `yaml:"proxy_url"`

	// VerifySSL enforces TLS certificate validation. Defaults to true;
	// the pointer distinguishes "unset" from an explicit false.
	VerifySSL *bool `yaml:"verify_ssl"`

	// TimeoutSeconds bounds each outbound request.
	TimeoutSeconds float64 `yaml:"timeout_seconds"`

	// TracingHeaders are added to every outbound request.
	TracingHeaders map[string]string `yaml:"tracing_headers"`
}

// MCP configures the MCP tool server.
type MCP struct {
	// CallsPerMinute caps tool invocations. Zero uses the default.
	CallsPerMinute int `yaml:"calls_per_minute"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	verify := true
	return &Config{
		Server: Server{
			Listen:          "127.0.0.1:7331",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTP{
			VerifySSL:      &verify,
			TimeoutSeconds: 30,
		},
		MCP: MCP{
			CallsPerMinute: 100,
		},
	}
}

// Load reads configuration from path, or from the XDG config location when
// path is empty. A missing file yields the defaults; a malformed file is an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be non-negative, got %v", c.HTTP.TimeoutSeconds)
	}
	if c.MCP.CallsPerMinute < 0 {
		return fmt.Errorf("mcp.calls_per_minute must be non-negative, got %d", c.MCP.CallsPerMinute)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// VerifySSL returns the effective TLS verification setting.
func (h *HTTP) VerifySSLEnabled() bool {
	if h.VerifySSL == nil {
		return true
	}
	return *h.VerifySSL
}

// Timeout returns the effective outbound request timeout.
func (h *HTTP) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(h.TimeoutSeconds * float64(time.Second))
}
