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

// hirod runs the hiro dashboard as a standalone daemon, configured entirely
// by flags and the config file. Equivalent to "hiro serve" without the CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kwkeefer/hiro/internal/commands/shared"
	"github.com/kwkeefer/hiro/internal/config"
	"github.com/kwkeefer/hiro/internal/dashboard"
	"github.com/kwkeefer/hiro/internal/log"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to config file")
		listen      = flag.String("listen", "", "Address to listen on (overrides config)")
		dbPath      = flag.String("db", "", "Path to sqlite database (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("hirod %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := log.New(log.FromEnv())
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", log.Error(err))
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Server.DatabasePath = *dbPath
	}
	if cfg.Server.DatabasePath == "" {
		cfg.Server.DatabasePath, err = config.DatabasePath()
		if err != nil {
			logger.Error("Failed to resolve database path", log.Error(err))
			os.Exit(1)
		}
	}

	srv, err := dashboard.New(dashboard.Config{
		Listen:          cfg.Server.Listen,
		DatabasePath:    cfg.Server.DatabasePath,
		HTTP:            shared.ToolConfig(cfg),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Version:         version,
	}, logger)
	if err != nil {
		logger.Error("Failed to start dashboard", log.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("Dashboard exited with error", log.Error(err))
		os.Exit(1)
	}
}
