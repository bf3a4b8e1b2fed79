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

// Package api provides the JSON API for the hiro dashboard.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kwkeefer/hiro/internal/dashboard/httputil"
	"github.com/kwkeefer/hiro/internal/dashboard/store"
)

// TargetsHandler handles target CRUD requests.
type TargetsHandler struct {
	store *store.SQLiteStore
}

// NewTargetsHandler creates a targets handler.
func NewTargetsHandler(s *store.SQLiteStore) *TargetsHandler {
	return &TargetsHandler{store: s}
}

// RegisterRoutes registers target API routes on the mux.
func (h *TargetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/targets", h.handleCreate)
	mux.HandleFunc("GET /v1/targets", h.handleList)
	mux.HandleFunc("GET /v1/targets/{id}", h.handleGet)
	mux.HandleFunc("PATCH /v1/targets/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /v1/targets/{id}", h.handleDelete)
	mux.HandleFunc("GET /v1/targets/{id}/requests", h.handleListRequests)
}

// CreateTargetRequest is the request body for creating a target.
type CreateTargetRequest struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Port   int    `json:"port,omitempty"`
	Scheme string `json:"scheme,omitempty"`
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// handleCreate handles POST /v1/targets.
func (h *TargetsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	target := &store.Target{
		Name:   strings.TrimSpace(req.Name),
		Host:   strings.TrimSpace(req.Host),
		Port:   req.Port,
		Scheme: req.Scheme,
		Status: req.Status,
		Notes:  req.Notes,
	}
	if err := h.store.CreateTarget(r.Context(), target); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, target)
}

// handleList handles GET /v1/targets.
func (h *TargetsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	opts := store.ListTargetsOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if opts.Status != "" && !store.ValidStatus(opts.Status) {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid status filter %q", opts.Status))
		return
	}

	targets, err := h.store.ListTargets(r.Context(), opts)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if targets == nil {
		targets = []*store.Target{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

// handleGet handles GET /v1/targets/{id}.
func (h *TargetsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	target, err := h.store.GetTarget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, target)
}

// handleUpdate handles PATCH /v1/targets/{id}.
func (h *TargetsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var upd store.TargetUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	target, err := h.store.UpdateTarget(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeStoreError(w, err)
		} else {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	httputil.WriteJSON(w, http.StatusOK, target)
}

// handleDelete handles DELETE /v1/targets/{id}.
func (h *TargetsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTarget(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRequests handles GET /v1/targets/{id}/requests.
func (h *TargetsHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.GetTarget(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}

	logs, err := h.store.ListRequests(r.Context(), store.ListRequestsOptions{
		TargetID: id,
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

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	httputil.WriteError(w, http.StatusInternalServerError, err.Error())
}

// queryInt parses an integer query parameter, 0 when absent or malformed.
func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
