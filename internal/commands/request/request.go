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

// Package request implements the one-shot request command.
package request

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwkeefer/hiro/internal/commands/shared"
	"github.com/kwkeefer/hiro/internal/config"
	"github.com/kwkeefer/hiro/internal/httptool"
)

// NewCommand creates the request command.
func NewCommand() *cobra.Command {
	var (
		configPath string
		method     string
		headers    []string
		body       string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Perform one HTTP request through the configured tool",
		Long: `Perform one outbound HTTP request using the same configuration (proxy,
TLS verification, timeout, tracing headers) as the MCP tool, and print the
result record as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configPath, args[0], method, headers, body, timeout)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Header in 'Name: value' form (repeatable)")
	cmd.Flags().StringVarP(&body, "data", "d", "", "Request body")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout override")

	return cmd
}

func run(cmd *cobra.Command, configPath, url, method string, headers []string, body string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tool, err := httptool.New(shared.ToolConfig(cfg))
	if err != nil {
		return err
	}

	req := httptool.Request{
		URL:     url,
		Method:  method,
		Timeout: timeout,
	}
	if body != "" {
		req.Body = []byte(body)
	}
	if len(headers) > 0 {
		req.Headers = make(map[string]string, len(headers))
		for _, h := range headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return fmt.Errorf("invalid header %q (want 'Name: value')", h)
			}
			req.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	result, err := tool.Execute(cmd.Context(), req)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
