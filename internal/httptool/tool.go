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
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Request describes one outbound HTTP request.
type Request struct {
	// URL is the absolute URL to contact (http or https).
	URL string

	// Method is the HTTP verb. Empty defaults to GET.
	Method string

	// Headers are per-call headers. They override configured tracing
	// headers on key collision.
	Headers map[string]string

	// Body is the optional request body.
	Body []byte

	// Timeout overrides the configured timeout for this call when positive.
	Timeout time.Duration
}

// RequestRecord captures what was actually dispatched, for observability.
type RequestRecord struct {
	// HeadersSent holds the exact final headers on the wire, including
	// merged tracing headers.
	HeadersSent map[string]string `json:"headers_sent"`

	// ProxyUsed is the proxy the request was routed through, empty for a
	// direct connection.
	ProxyUsed string `json:"proxy_used,omitempty"`
}

// Result is the normalized outcome of one completed request. HTTP error
// statuses (4xx/5xx) are normal results; a Result is only absent when the
// request could not be completed at all.
type Result struct {
	StatusCode int               `json:"status_code"`
	URL        string            `json:"url"`
	ElapsedMS  float64           `json:"elapsed_ms"`
	Headers    map[string]string `json:"headers"`
	Text       string            `json:"text"`
	BodySize   int               `json:"body_size"`
	Request    RequestRecord     `json:"request"`

	// TLSDiagnostic notes a certificate problem observed while
	// verification was disabled. Informational only.
	TLSDiagnostic string `json:"tls_diagnostic,omitempty"`
}

// RequestTool performs one HTTP request per Execute call. It holds only
// read-only configuration and a client, so concurrent Execute calls are safe.
type RequestTool struct {
	config *Config
	client *http.Client
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodDelete: true, http.MethodPatch: true, http.MethodHead: true,
	http.MethodOptions: true,
}

// New creates a request tool. A nil config uses DefaultConfig.
func New(cfg *Config) (*RequestTool, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// No configured proxy means a direct connection; environment proxy
	// settings are deliberately not consulted, so ProxyUsed on results
	// always reflects reality.
	var proxy func(*http.Request) (*url.URL, error)
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy_url: %w", err)
		}
		proxy = http.ProxyURL(u)
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy: proxy,

			// Connection pool settings
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,

			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,

			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !cfg.VerifySSL,
			},
		},
	}

	return &RequestTool{
		config: cfg,
		client: client,
	}, nil
}

// Config returns the tool's configuration. Callers must not mutate it.
func (t *RequestTool) Config() *Config {
	return t.config
}

// Execute performs exactly one HTTP request. A single attempt, no retries.
func (t *RequestTool) Execute(ctx context.Context, req Request) (*Result, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	timeout := t.config.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(httpReq.Context(), timeout)
	defer cancel()
	httpReq = httpReq.WithContext(ctx)

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(req.URL, timeout.String(), err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, t.config.MaxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, classifyError(req.URL, timeout.String(), err)
	}
	elapsed := time.Since(start)

	record := RequestRecord{
		HeadersSent: flattenHeaders(httpReq.Header),
		ProxyUsed:   t.config.ProxyURL,
	}

	if int64(len(body)) > t.config.MaxResponseSize {
		return nil, &UnexpectedResponseError{
			URL:    req.URL,
			Reason: fmt.Sprintf("response body exceeds %d bytes", t.config.MaxResponseSize),
			Text:   string(body[:t.config.MaxResponseSize]),
		}
	}
	if !utf8.Valid(body) {
		return nil, &UnexpectedResponseError{
			URL:    req.URL,
			Reason: "response body is not valid UTF-8",
			Text:   strings.ToValidUTF8(string(body), "�"),
		}
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		URL:        finalURL(resp, req.URL),
		ElapsedMS:  float64(elapsed) / float64(time.Millisecond),
		Headers:    flattenHeaders(resp.Header),
		Text:       string(body),
		BodySize:   len(body),
		Request:    record,
	}

	if !t.config.VerifySSL {
		result.TLSDiagnostic = tlsDiagnostic(resp, httpReq.URL.Hostname())
	}

	return result, nil
}

// buildRequest validates inputs and constructs the http.Request with the
// configured tracing headers merged in. Validation failures happen before any
// network I/O.
func (t *RequestTool) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, &InvalidRequestError{URL: req.URL, Reason: err.Error()}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &InvalidRequestError{URL: req.URL, Reason: "URL scheme must be http or https"}
	}
	if parsed.Host == "" {
		return nil, &InvalidRequestError{URL: req.URL, Reason: "URL must include a host"}
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !validMethods[method] {
		return nil, &InvalidRequestError{URL: req.URL, Reason: fmt.Sprintf("unsupported HTTP method %q", req.Method)}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, &InvalidRequestError{URL: req.URL, Reason: err.Error()}
	}

	// Tracing headers first, then per-call headers; caller wins on collision.
	for key, value := range t.config.TracingHeaders {
		if err := validateHeader(key, value); err != nil {
			return nil, &InvalidRequestError{URL: req.URL, Reason: err.Error()}
		}
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		if err := validateHeader(key, value); err != nil {
			return nil, &InvalidRequestError{URL: req.URL, Reason: err.Error()}
		}
		httpReq.Header.Set(key, value)
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

// validateHeader rejects header names and values that would corrupt the wire
// format.
func validateHeader(name, value string) error {
	if name == "" {
		return fmt.Errorf("empty header name")
	}
	if strings.ContainsAny(name, " \t\r\n:") {
		return fmt.Errorf("invalid header name %q", name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("invalid value for header %q", name)
	}
	return nil
}

// flattenHeaders collapses multi-valued headers into a comma-joined map.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// finalURL reports the URL actually contacted after any redirects.
func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}

// tlsDiagnostic re-runs certificate verification on the presented chain when
// verification was skipped, so callers still learn about certificate
// problems. Returns "" for plaintext connections or a clean chain.
func tlsDiagnostic(resp *http.Response, hostname string) string {
	if resp.TLS == nil || len(resp.TLS.PeerCertificates) == 0 {
		return ""
	}

	leaf := resp.TLS.PeerCertificates[0]
	intermediates := x509.NewCertPool()
	for _, cert := range resp.TLS.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}

	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       hostname,
		Intermediates: intermediates,
	})
	if err != nil {
		return fmt.Sprintf("certificate would fail verification: %v", err)
	}
	return ""
}
