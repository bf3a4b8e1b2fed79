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

// Package mcpserver implements the mcp command.
package mcpserver

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwkeefer/hiro/internal/commands/shared"
	"github.com/kwkeefer/hiro/internal/config"
	"github.com/kwkeefer/hiro/internal/mcp/server"
)

// NewCommand creates the mcp command.
func NewCommand(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the hiro MCP server",
		Long: `Start the hiro MCP (Model Context Protocol) server.

The MCP server exposes the http_request tool, which performs one outbound
HTTP request per call through the configured proxy and returns the status,
headers, body, and timing. It runs on stdio, suitable for integration with
tool-calling hosts:

  {
    "mcpServers": {
      "hiro": {
        "command": "hiro",
        "args": ["mcp"]
      }
    }
  }

Proxy, TLS verification, timeout, and tracing headers come from the hiro
config file (~/.config/hiro/config.yaml).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configPath, version)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")

	return cmd
}

func run(cmd *cobra.Command, configPath, version string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdio transport owns stdout; logs must go to stderr only.
	logger := shared.Logger(cfg)

	srv, err := server.New(server.Config{
		Version:        version,
		CallsPerMinute: cfg.MCP.CallsPerMinute,
		HTTP:           shared.ToolConfig(cfg),
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
