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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kwkeefer/hiro/internal/dashboard/httputil"
	"github.com/kwkeefer/hiro/internal/dashboard/store"
	"github.com/kwkeefer/hiro/internal/httptool"
	"github.com/kwkeefer/hiro/internal/log"
)

// Executor performs one outbound HTTP request. Satisfied by
// *httptool.RequestTool.
type Executor interface {
	Execute(ctx context.Context, req httptool.Request) (*httptool.Result, error)
}

// RequestObserver receives timing and failure signals for outbound requests.
// Satisfied by the dashboard metrics; nil-safe at the call sites.
type RequestObserver interface {
	ObserveOutbound(method string, elapsed time.Duration)
	OutboundFailed(kind string)
	LogRecorded()
}

// RequestsHandler executes HTTP requests through the tool and serves the
// request history.
type RequestsHandler struct {
	store    *store.SQLiteStore
	executor Executor
	observer RequestObserver
	logger   *slog.Logger
}

// NewRequestsHandler creates a requests handler.
func NewRequestsHandler(s *store.SQLiteStore, exec Executor, obs RequestObserver, logger *slog.Logger) *RequestsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestsHandler{store: s, executor: exec, observer: obs, logger: logger}
}

// RegisterRoutes registers request API routes on the mux.
func (h *RequestsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/requests", h.handleExecute)
	mux.HandleFunc("GET /v1/requests", h.handleList)
}

// ExecuteRequest is the request body for executing an HTTP request.
type ExecuteRequest struct {
	URL      string            `json:"url"`
	Method   string            `json:"method,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     string            `json:"body,omitempty"`
	TargetID string            `json:"target_id,omitempty"`
}

// ExecuteResponse wraps the tool result with the persisted log entry ID.
type ExecuteResponse struct {
	LogID  string           `json:"log_id,omitempty"`
	Result *httptool.Result `json:"result"`
}

// handleExecute handles POST /v1/requests: one outbound request through the
// tool, recorded to the request history.
func (h *RequestsHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.URL == "" {
		httputil.WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	// An unknown target is a caller mistake; catch it before any network I/O.
	if req.TargetID != "" {
		if _, err := h.store.GetTarget(r.Context(), req.TargetID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown target %q", req.TargetID))
			} else {
				httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
	}

	toolReq := httptool.Request{
		URL:     req.URL,
		Method:  req.Method,
		Headers: req.Headers,
	}
	if req.Body != "" {
		toolReq.Body = []byte(req.Body)
	}

	result, err := h.executor.Execute(r.Context(), toolReq)
	if err != nil {
		h.writeExecuteError(w, err)
		return
	}

	if h.observer != nil {
		h.observer.ObserveOutbound(toolReq.Method, time.Duration(result.ElapsedMS*float64(time.Millisecond)))
	}

	entry := &store.RequestLog{
		TargetID:   req.TargetID,
		Method:     toolReq.Method,
		URL:        result.URL,
		StatusCode: result.StatusCode,
		ElapsedMS:  result.ElapsedMS,
		Headers:    result.Request.HeadersSent,
		ProxyUsed:  result.Request.ProxyUsed,
	}
	if entry.Method == "" {
		entry.Method = http.MethodGet
	}
	if err := h.store.RecordRequest(r.Context(), entry); err != nil {
		// The request itself succeeded; surface the result along with the
		// persistence problem rather than discarding either.
		h.logger.Error("failed to record request log", log.Error(err))
		httputil.WriteJSON(w, http.StatusOK, ExecuteResponse{Result: result})
		return
	}
	if h.observer != nil {
		h.observer.LogRecorded()
	}

	h.logger.Info("request executed",
		slog.String(log.MethodKey, entry.Method),
		slog.String(log.URLKey, entry.URL),
		slog.Int(log.StatusKey, entry.StatusCode),
		slog.String(log.ProxyKey, entry.ProxyUsed),
	)

	httputil.WriteJSON(w, http.StatusOK, ExecuteResponse{LogID: entry.ID, Result: result})
}

// writeExecuteError maps tool error kinds onto HTTP statuses. The error kind
// is included so API clients can distinguish failure classes.
func (h *RequestsHandler) writeExecuteError(w http.ResponseWriter, err error) {
	kind, status := classifyToolError(err)
	if h.observer != nil {
		h.observer.OutboundFailed(kind)
	}
	httputil.WriteJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  kind,
	})
}

// classifyToolError names the error kind and picks a response status.
func classifyToolError(err error) (kind string, status int) {
	var invalid *httptool.InvalidRequestError
	var timeout *httptool.TimeoutError
	var tlsErr *httptool.TLSVerificationError
	var conn *httptool.ConnectionError
	var unexpected *httptool.UnexpectedResponseError

	switch {
	case errors.As(err, &invalid):
		return "invalid_request", http.StatusBadRequest
	case errors.As(err, &timeout):
		return "timeout", http.StatusGatewayTimeout
	case errors.As(err, &tlsErr):
		return "tls_verification_failure", http.StatusBadGateway
	case errors.As(err, &conn):
		return "connection_failure", http.StatusBadGateway
	case errors.As(err, &unexpected):
		return "unexpected_response", http.StatusBadGateway
	default:
		return "error", http.StatusInternalServerError
	}
}

// handleList handles GET /v1/requests.
func (h *RequestsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListRequests(r.Context(), store.ListRequestsOptions{
		TargetID: r.URL.Query().Get("target_id"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	})
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []*store.RequestLog{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": logs})
}
