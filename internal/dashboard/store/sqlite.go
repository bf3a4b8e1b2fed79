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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore provides sqlite-backed storage for targets and request logs.
type SQLiteStore struct {
	db *sql.DB
}

// Config contains sqlite storage configuration.
type Config struct {
	// Path is the filesystem path to the sqlite database file.
	// Special value ":memory:" creates an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int
}

// New opens (or creates) the database and runs migrations.
func New(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Pragmas go in the DSN so every pooled connection gets them. WAL mode
	// allows concurrent readers alongside the writer; foreign_keys must be
	// on for request logs to detach when their target is deleted.
	connStr := cfg.Path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	if cfg.Path != ":memory:" {
		connStr += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns == 0 {
		maxConns = 5
	}
	if cfg.Path == ":memory:" {
		// Each connection to :memory: would get its own empty database.
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS targets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			host TEXT NOT NULL,
			port INTEGER NOT NULL DEFAULT 0,
			scheme TEXT NOT NULL DEFAULT 'https',
			status TEXT NOT NULL DEFAULT 'active',
			notes TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_targets_status ON targets(status)`,
		`CREATE INDEX IF NOT EXISTS idx_targets_host ON targets(host)`,

		// Logs outlive their target: deleting a target detaches rather
		// than cascades.
		`CREATE TABLE IF NOT EXISTS request_logs (
			id TEXT PRIMARY KEY,
			target_id TEXT REFERENCES targets(id) ON DELETE SET NULL,
			method TEXT NOT NULL,
			url TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			elapsed_ms REAL NOT NULL,
			headers TEXT,
			proxy_used TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_target ON request_logs(target_id)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_created ON request_logs(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTarget inserts a new target. ID, CreatedAt, and UpdatedAt are
// assigned by the store.
func (s *SQLiteStore) CreateTarget(ctx context.Context, t *Target) error {
	if t.Name == "" {
		return fmt.Errorf("target name is required")
	}
	if t.Host == "" {
		return fmt.Errorf("target host is required")
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if !ValidStatus(t.Status) {
		return fmt.Errorf("invalid target status %q", t.Status)
	}
	if t.Scheme == "" {
		t.Scheme = "https"
	}

	t.ID = uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO targets (id, name, host, port, scheme, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Host, t.Port, t.Scheme, t.Status, t.Notes,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert target: %w", err)
	}
	return nil
}

// GetTarget returns the target with the given ID, or ErrNotFound.
func (s *SQLiteStore) GetTarget(ctx context.Context, id string) (*Target, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, host, port, scheme, status, notes, created_at, updated_at
		 FROM targets WHERE id = ?`, id)
	return scanTarget(row)
}

// ListTargets returns targets matching the options, newest first.
func (s *SQLiteStore) ListTargets(ctx context.Context, opts ListTargetsOptions) ([]*Target, error) {
	query := `SELECT id, name, host, port, scheme, status, notes, created_at, updated_at FROM targets`
	args := []any{}
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at DESC, id`

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []*Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// UpdateTarget applies a partial update and returns the updated target.
func (s *SQLiteStore) UpdateTarget(ctx context.Context, id string, upd TargetUpdate) (*Target, error) {
	t, err := s.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, fmt.Errorf("target name is required")
		}
		t.Name = *upd.Name
	}
	if upd.Host != nil {
		if *upd.Host == "" {
			return nil, fmt.Errorf("target host is required")
		}
		t.Host = *upd.Host
	}
	if upd.Port != nil {
		t.Port = *upd.Port
	}
	if upd.Scheme != nil {
		t.Scheme = *upd.Scheme
	}
	if upd.Status != nil {
		if !ValidStatus(*upd.Status) {
			return nil, fmt.Errorf("invalid target status %q", *upd.Status)
		}
		t.Status = *upd.Status
	}
	if upd.Notes != nil {
		t.Notes = *upd.Notes
	}

	t.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = s.db.ExecContext(ctx,
		`UPDATE targets SET name = ?, host = ?, port = ?, scheme = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Host, t.Port, t.Scheme, t.Status, t.Notes, t.UpdatedAt.Unix(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update target: %w", err)
	}
	return t, nil
}

// DeleteTarget removes a target. Its request logs are detached, not deleted.
func (s *SQLiteStore) DeleteTarget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM targets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordRequest inserts a request log entry. ID and CreatedAt are assigned
// by the store.
func (s *SQLiteStore) RecordRequest(ctx context.Context, r *RequestLog) error {
	if r.Method == "" || r.URL == "" {
		return fmt.Errorf("request method and url are required")
	}

	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)

	var headers []byte
	if len(r.Headers) > 0 {
		var err error
		headers, err = json.Marshal(r.Headers)
		if err != nil {
			return fmt.Errorf("failed to encode headers: %w", err)
		}
	}

	var targetID any
	if r.TargetID != "" {
		targetID = r.TargetID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_logs (id, target_id, method, url, status_code, elapsed_ms, headers, proxy_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, targetID, r.Method, r.URL, r.StatusCode, r.ElapsedMS,
		nullableString(headers), r.ProxyUsed, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request log: %w", err)
	}
	return nil
}

// ListRequests returns request logs matching the options, newest first.
func (s *SQLiteStore) ListRequests(ctx context.Context, opts ListRequestsOptions) ([]*RequestLog, error) {
	query := `SELECT id, target_id, method, url, status_code, elapsed_ms, headers, proxy_used, created_at
	          FROM request_logs`
	args := []any{}
	if opts.TargetID != "" {
		query += ` WHERE target_id = ?`
		args = append(args, opts.TargetID)
	}
	query += ` ORDER BY created_at DESC, id`

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer rows.Close()

	var logs []*RequestLog
	for rows.Next() {
		r, err := scanRequestLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, r)
	}
	return logs, rows.Err()
}

// RecentRequests returns the newest request logs across all targets.
func (s *SQLiteStore) RecentRequests(ctx context.Context, limit int) ([]*RequestLog, error) {
	return s.ListRequests(ctx, ListRequestsOptions{Limit: limit})
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTarget(row scanner) (*Target, error) {
	var t Target
	var createdAt, updatedAt int64
	err := row.Scan(&t.ID, &t.Name, &t.Host, &t.Port, &t.Scheme, &t.Status, &t.Notes, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan target: %w", err)
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &t, nil
}

func scanRequestLog(row scanner) (*RequestLog, error) {
	var r RequestLog
	var targetID, headers sql.NullString
	var createdAt int64
	err := row.Scan(&r.ID, &targetID, &r.Method, &r.URL, &r.StatusCode, &r.ElapsedMS, &headers, &r.ProxyUsed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan request log: %w", err)
	}
	r.TargetID = targetID.String
	if headers.Valid && headers.String != "" {
		if err := json.Unmarshal([]byte(headers.String), &r.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode headers for log %s: %w", r.ID, err)
		}
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &r, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
