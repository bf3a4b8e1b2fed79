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

// Package httptool executes outbound HTTP requests with configurable proxy,
// TLS, and tracing-header behavior, and exposes the capability as an MCP tool.
package httptool

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds outbound request configuration. A Config is immutable after
// construction and may be shared by any number of concurrent invocations.
type Config struct {
	// ProxyURL routes all requests through the given proxy when set.
	ProxyURL string

	// VerifySSL enforces TLS certificate validation when true.
	VerifySSL bool

	// Timeout bounds the total duration of one request, from dispatch to
	// full response receipt.
	Timeout time.Duration

	// TracingHeaders are merged into every outgoing request for
	// correlation. Per-call headers override them on key collision.
	TracingHeaders map[string]string

	// MaxResponseSize caps the number of response body bytes read.
	MaxResponseSize int64
}

const (
	// DefaultTimeout is applied when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize is applied when no body cap is configured.
	DefaultMaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// DefaultConfig returns the default configuration: direct connection,
// verification on, 30s timeout, no tracing headers.
func DefaultConfig() *Config {
	return &Config{
		VerifySSL:       true,
		Timeout:         DefaultTimeout,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// normalized returns a copy of c with zero values replaced by defaults.
// A nil receiver yields DefaultConfig. Callers passing a Config keep
// ownership of theirs; the tool only ever reads the copy.
func (c *Config) normalized() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := &Config{
		ProxyURL:        c.ProxyURL,
		VerifySSL:       c.VerifySSL,
		Timeout:         c.Timeout,
		MaxResponseSize: c.MaxResponseSize,
	}
	if out.Timeout == 0 {
		out.Timeout = DefaultTimeout
	}
	if out.MaxResponseSize == 0 {
		out.MaxResponseSize = DefaultMaxResponseSize
	}
	if len(c.TracingHeaders) > 0 {
		out.TracingHeaders = make(map[string]string, len(c.TracingHeaders))
		for k, v := range c.TracingHeaders {
			out.TracingHeaders[k] = v
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil {
			return fmt.Errorf("invalid proxy_url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy_url must include scheme and host, got %q", c.ProxyURL)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	if c.MaxResponseSize < 0 {
		return fmt.Errorf("max_response_size must be non-negative, got %d", c.MaxResponseSize)
	}
	return nil
}
