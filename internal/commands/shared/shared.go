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

// Package shared holds helpers used by multiple CLI commands.
package shared

import (
	"log/slog"

	"github.com/kwkeefer/hiro/internal/config"
	"github.com/kwkeefer/hiro/internal/httptool"
	"github.com/kwkeefer/hiro/internal/log"
)

// ToolConfig maps the file configuration onto the request tool's config.
func ToolConfig(cfg *config.Config) *httptool.Config {
	return &httptool.Config{
		ProxyURL:       cfg.HTTP.ProxyURL,
		VerifySSL:      cfg.HTTP.VerifySSLEnabled(),
		Timeout:        cfg.HTTP.Timeout(),
		TracingHeaders: cfg.HTTP.TracingHeaders,
	}
}

// Logger builds a logger from the file configuration, with the environment
// (HIRO_DEBUG, LOG_LEVEL, ...) taking precedence.
func Logger(cfg *config.Config) *slog.Logger {
	lc := log.FromEnv()
	if cfg.Log.Level != "" && lc.Level == "info" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = log.Format(cfg.Log.Format)
	}
	return log.New(lc)
}
