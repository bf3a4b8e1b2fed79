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

// Package server implements an MCP server that exposes the hiro HTTP request
// tool to tool-calling hosts over stdio.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/kwkeefer/hiro/internal/httptool"
	"github.com/kwkeefer/hiro/internal/log"
)

// DefaultCallsPerMinute caps tool invocations when no limit is configured.
const DefaultCallsPerMinute = 100

// Config configures the MCP server.
type Config struct {
	// Name is the server name (default: "hiro").
	Name string

	// Version is the hiro version.
	Version string

	// CallsPerMinute caps total tool calls per minute.
	CallsPerMinute int

	// HTTP configures the request tool served by this server.
	HTTP *httptool.Config
}

// Server wraps the MCP server and serves the HTTP request tool.
type Server struct {
	mcpServer *mcpserver.MCPServer
	provider  *httptool.Provider
	name      string
	version   string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates an MCP server instance. Logs go to stderr because the stdio
// transport owns stdout.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Name == "" {
		cfg.Name = "hiro"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.CallsPerMinute == 0 {
		cfg.CallsPerMinute = DefaultCallsPerMinute
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	provider, err := httptool.NewProvider(cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool provider: %w", err)
	}

	s := &Server{
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version),
		provider:  provider,
		name:      cfg.Name,
		version:   cfg.Version,
		limiter:   rate.NewLimiter(rate.Limit(float64(cfg.CallsPerMinute)/60.0), cfg.CallsPerMinute),
		logger:    log.WithComponent(logger, "mcp"),
	}

	s.registerTools()
	return s, nil
}

// Provider returns the tool provider backing this server.
func (s *Server) Provider() *httptool.Provider {
	return s.provider
}

// registerTools registers the provider's tools with the MCP server, wrapped
// with rate limiting and call logging.
func (s *Server) registerTools() {
	for _, tool := range s.provider.Tools() {
		s.mcpServer.AddTool(tool, s.limited(tool.Name, s.provider.HandleHTTPRequest))
	}
}

// limited wraps a tool handler with the call rate limit.
func (s *Server) limited(name string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !s.limiter.Allow() {
			s.logger.Warn("tool call rate limited", slog.String("tool", name))
			return mcp.NewToolResultError("Rate limit exceeded. Please try again later."), nil
		}

		s.logger.Debug("tool call", slog.String("tool", name))
		return handler(ctx, request)
	}
}

// Run starts the MCP server on the stdio transport and blocks until the
// transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server",
		slog.String("name", s.name),
		slog.String("version", s.version),
	)

	if err := mcpserver.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
