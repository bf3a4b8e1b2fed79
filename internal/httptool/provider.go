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

package httptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolName is the name the HTTP request tool is registered under.
const ToolName = "http_request"

// Provider adapts a RequestTool into MCP tool descriptors and dispatches
// tool calls to it. Providers built from different configs are fully
// independent.
type Provider struct {
	config *Config
	tool   *RequestTool
}

// NewProvider creates a provider around a fresh RequestTool. A nil config
// uses DefaultConfig.
func NewProvider(cfg *Config) (*Provider, error) {
	tool, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{
		config: tool.Config(),
		tool:   tool,
	}, nil
}

// Config returns the provider's configuration for inspection.
func (p *Provider) Config() *Config {
	return p.config
}

// Tool returns the underlying request tool.
func (p *Provider) Tool() *RequestTool {
	return p.tool
}

// Tools returns the tool descriptors this provider serves. The schema is
// declared statically so it cannot drift silently from the handler; the
// provider tests pin the two together.
func (p *Provider) Tools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        ToolName,
			Description: "Perform one outbound HTTP request through the configured proxy and return status, headers, body, and timing. HTTP error statuses are normal results, not errors.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "Absolute URL to request (http or https)",
					},
					"method": map[string]interface{}{
						"type":        "string",
						"description": "HTTP method (GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS)",
						"default":     "GET",
					},
					"headers": map[string]interface{}{
						"type":        "object",
						"description": "Per-request headers; override configured tracing headers on collision",
					},
					"body": map[string]interface{}{
						"type":        "string",
						"description": "Request body",
					},
					"timeout": map[string]interface{}{
						"type":        "number",
						"description": "Per-request timeout in seconds; overrides the configured timeout",
					},
				},
				Required: []string{"url"},
			},
		},
	}
}

// HandleHTTPRequest implements the http_request tool. Structural problems
// with the arguments are reported as such, distinctly from network-level
// failures, so a tool-calling host can tell a bad call from a bad network.
func (p *Provider) HandleHTTPRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("invalid arguments: 'url' must be a string and is required"), nil
	}

	req := Request{
		URL:    rawURL,
		Method: request.GetString("method", "GET"),
	}

	args := request.GetArguments()
	if raw, ok := args["headers"]; ok {
		headers, ok := raw.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments: 'headers' must be an object of string values"), nil
		}
		req.Headers = make(map[string]string, len(headers))
		for key, value := range headers {
			str, ok := value.(string)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: header %q must be a string", key)), nil
			}
			req.Headers[key] = str
		}
	}
	if raw, ok := args["body"]; ok {
		body, ok := raw.(string)
		if !ok {
			return mcp.NewToolResultError("invalid arguments: 'body' must be a string"), nil
		}
		req.Body = []byte(body)
	}
	if raw, ok := args["timeout"]; ok {
		seconds, ok := raw.(float64)
		if !ok || seconds < 0 {
			return mcp.NewToolResultError("invalid arguments: 'timeout' must be a non-negative number of seconds"), nil
		}
		req.Timeout = time.Duration(seconds * float64(time.Second))
	}

	result, err := p.tool.Execute(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", errorKind(err), err)), nil
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(encoded)),
		},
	}, nil
}

// errorKind names the taxonomy bucket an execution error belongs to.
func errorKind(err error) string {
	var invalid *InvalidRequestError
	var conn *ConnectionError
	var tlsErr *TLSVerificationError
	var timeout *TimeoutError
	var unexpected *UnexpectedResponseError

	switch {
	case errors.As(err, &invalid):
		return "invalid_request"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &tlsErr):
		return "tls_verification_failure"
	case errors.As(err, &conn):
		return "connection_failure"
	case errors.As(err, &unexpected):
		return "unexpected_response"
	default:
		return "error"
	}
}
