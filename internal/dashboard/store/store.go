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

// Package store provides sqlite-backed persistence for targets and HTTP
// request history.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Target statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBlocked  = "blocked"
)

// ValidStatus reports whether s is a known target status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusBlocked:
		return true
	}
	return false
}

// Target is a host under testing.
type Target struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port,omitempty"`
	Scheme    string    `json:"scheme,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequestLog records one HTTP request made against a target (or ad hoc, with
// no target).
type RequestLog struct {
	ID         string            `json:"id"`
	TargetID   string            `json:"target_id,omitempty"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	ElapsedMS  float64           `json:"elapsed_ms"`
	Headers    map[string]string `json:"headers,omitempty"`
	ProxyUsed  string            `json:"proxy_used,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TargetUpdate carries the mutable target fields for a partial update.
// Nil fields are left unchanged.
type TargetUpdate struct {
	Name   *string `json:"name,omitempty"`
	Host   *string `json:"host,omitempty"`
	Port   *int    `json:"port,omitempty"`
	Scheme *string `json:"scheme,omitempty"`
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// ListTargetsOptions filters target listings.
type ListTargetsOptions struct {
	// Status filters by target status when non-empty.
	Status string

	Limit  int
	Offset int
}

// ListRequestsOptions filters request log listings.
type ListRequestsOptions struct {
	// TargetID filters by target when non-empty.
	TargetID string

	Limit  int
	Offset int
}
