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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// InvalidRequestError indicates the request was rejected before any network
// I/O was attempted: malformed URL, unsupported method, or invalid header.
type InvalidRequestError struct {
	URL    string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request %q: %s", e.URL, e.Reason)
}

// ConnectionError indicates the request could not reach the server: DNS
// failure, connection refused, or an unreachable proxy.
type ConnectionError struct {
	URL   string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed for %q: %v", e.URL, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// TLSVerificationError indicates certificate validation failed while
// verification was enforced.
type TLSVerificationError struct {
	URL   string
	Cause error
}

func (e *TLSVerificationError) Error() string {
	return fmt.Sprintf("TLS verification failed for %q: %v", e.URL, e.Cause)
}

func (e *TLSVerificationError) Unwrap() error { return e.Cause }

// TimeoutError indicates the request exceeded the configured timeout.
type TimeoutError struct {
	URL     string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %q timed out after %s", e.URL, e.Timeout)
}

// UnexpectedResponseError indicates transport-level success but a response
// body that could not be decoded as expected. Text carries whatever could be
// salvaged so callers keep diagnostic access to the raw payload.
type UnexpectedResponseError struct {
	URL    string
	Reason string
	Text   string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response from %q: %s", e.URL, e.Reason)
}

// classifyError maps a transport error from the HTTP client onto the typed
// error taxonomy. Certificate failures are checked first: they arrive wrapped
// in *url.Error and would otherwise be misreported as connection errors.
func classifyError(reqURL string, timeout string, err error) error {
	if isTLSVerificationError(err) {
		return &TLSVerificationError{URL: reqURL, Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: reqURL, Timeout: timeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: reqURL, Timeout: timeout}
	}

	// Unwrap *url.Error so the cause reads cleanly.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ConnectionError{URL: reqURL, Cause: urlErr.Err}
	}

	return &ConnectionError{URL: reqURL, Cause: err}
}

// isTLSVerificationError reports whether err stems from certificate
// validation rather than the transport itself.
func isTLSVerificationError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) {
		return true
	}
	return false
}
