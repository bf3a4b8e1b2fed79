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

// Package serve implements the serve command.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwkeefer/hiro/internal/commands/shared"
	"github.com/kwkeefer/hiro/internal/config"
	"github.com/kwkeefer/hiro/internal/dashboard"
)

// NewCommand creates the serve command.
func NewCommand(version string) *cobra.Command {
	var (
		configPath string
		listen     string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hiro dashboard",
		Long: `Start the hiro dashboard server.

The dashboard tracks reconnaissance targets and the HTTP requests made
against them. It serves an HTMX-enhanced web UI, a JSON API under /v1, and
Prometheus metrics under /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, listen, dbPath, version)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to sqlite database (overrides config)")

	return cmd
}

func run(ctx context.Context, configPath, listen, dbPath, version string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if dbPath != "" {
		cfg.Server.DatabasePath = dbPath
	}
	if cfg.Server.DatabasePath == "" {
		cfg.Server.DatabasePath, err = config.DatabasePath()
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	logger := shared.Logger(cfg)

	srv, err := dashboard.New(dashboard.Config{
		Listen:          cfg.Server.Listen,
		DatabasePath:    cfg.Server.DatabasePath,
		HTTP:            shared.ToolConfig(cfg),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Version:         version,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
