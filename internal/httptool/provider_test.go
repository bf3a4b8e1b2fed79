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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      ToolName,
			Arguments: args,
		},
	}
}

// textContent extracts the text payload of a tool result.
func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestProviderTools(t *testing.T) {
	provider, err := NewProvider(nil)
	require.NoError(t, err)

	tools := provider.Tools()
	require.NotEmpty(t, tools)

	tool := tools[0]
	assert.Equal(t, ToolName, tool.Name)
	assert.NotEmpty(t, tool.Description)

	// url is required
	assert.Equal(t, []string{"url"}, tool.InputSchema.Required)

	// method declares a default
	method, ok := tool.InputSchema.Properties["method"].(map[string]interface{})
	require.True(t, ok, "method property missing from schema")
	assert.Equal(t, "GET", method["default"])
}

func TestProviderIndependence(t *testing.T) {
	a, err := NewProvider(&Config{VerifySSL: true, Timeout: 5 * time.Second})
	require.NoError(t, err)
	b, err := NewProvider(&Config{VerifySSL: true, Timeout: 90 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, a.Config().Timeout)
	assert.Equal(t, 90*time.Second, b.Config().Timeout)
	assert.NotSame(t, a.Tool(), b.Tool())
	assert.NotSame(t, a.Config(), b.Config())
}

func TestHandleHTTPRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "payload")
	}))
	defer server.Close()

	provider, err := NewProvider(nil)
	require.NoError(t, err)

	result, err := provider.HandleHTTPRequest(context.Background(), callRequest(map[string]any{
		"url": server.URL,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, "expected success result")

	var decoded Result
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &decoded))
	assert.Equal(t, http.StatusOK, decoded.StatusCode)
	assert.Equal(t, "payload", decoded.Text)
	assert.Empty(t, decoded.Request.ProxyUsed)
}

func TestHandleHTTPRequest_StructuralErrors(t *testing.T) {
	provider, err := NewProvider(nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "missing url",
			args: map[string]any{"method": "GET"},
			want: "invalid arguments",
		},
		{
			name: "url wrong type",
			args: map[string]any{"url": 42},
			want: "invalid arguments",
		},
		{
			name: "headers wrong type",
			args: map[string]any{"url": "http://example.com", "headers": "nope"},
			want: "invalid arguments",
		},
		{
			name: "header value wrong type",
			args: map[string]any{"url": "http://example.com", "headers": map[string]any{"X": 1}},
			want: "invalid arguments",
		},
		{
			name: "negative timeout",
			args: map[string]any{"url": "http://example.com", "timeout": -1.0},
			want: "invalid arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := provider.HandleHTTPRequest(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			require.True(t, result.IsError)

			// Structural violations are labeled as such, never as
			// network failures.
			text := textContent(t, result)
			assert.Contains(t, text, tt.want)
			assert.NotContains(t, text, "connection_failure")
		})
	}
}

func TestHandleHTTPRequest_NetworkErrorKinds(t *testing.T) {
	// A server that is already closed guarantees a connection failure.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	provider, err := NewProvider(nil)
	require.NoError(t, err)

	result, err := provider.HandleHTTPRequest(context.Background(), callRequest(map[string]any{
		"url": deadURL,
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(textContent(t, result), "connection_failure:"),
		"error text should name the error kind: %q", textContent(t, result))
}

func TestHandleHTTPRequest_TimeoutKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	provider, err := NewProvider(&Config{VerifySSL: true, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	result, err := provider.HandleHTTPRequest(context.Background(), callRequest(map[string]any{
		"url": server.URL,
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(textContent(t, result), "timeout:"))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid request", &InvalidRequestError{URL: "u", Reason: "r"}, "invalid_request"},
		{"timeout", &TimeoutError{URL: "u", Timeout: "1s"}, "timeout"},
		{"tls", &TLSVerificationError{URL: "u"}, "tls_verification_failure"},
		{"connection", &ConnectionError{URL: "u"}, "connection_failure"},
		{"unexpected response", &UnexpectedResponseError{URL: "u"}, "unexpected_response"},
		{"unknown", io.EOF, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorKind(tt.err))
		})
	}
}
