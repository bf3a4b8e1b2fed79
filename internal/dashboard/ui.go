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

package dashboard

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/kwkeefer/hiro/internal/dashboard/api"
	"github.com/kwkeefer/hiro/internal/dashboard/store"
	"github.com/kwkeefer/hiro/internal/httptool"
	"github.com/kwkeefer/hiro/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// UI serves the HTMX-enhanced HTML dashboard. Mutating form posts return
// fragments for in-place swaps; full pages render through the base layout.
type UI struct {
	store     *store.SQLiteStore
	executor  api.Executor
	templates *template.Template
	logger    *slog.Logger
}

// NewUI creates the HTML handler set.
func NewUI(s *store.SQLiteStore, exec api.Executor, logger *slog.Logger) (*UI, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UI{store: s, executor: exec, templates: tmpl, logger: logger}, nil
}

// RegisterRoutes registers the HTML routes on the mux.
func (u *UI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", u.handleIndex)
	mux.HandleFunc("POST /targets", u.handleCreateTarget)
	mux.HandleFunc("GET /targets/{id}", u.handleTargetDetail)
	mux.HandleFunc("DELETE /targets/{id}", u.handleDeleteTarget)
	mux.HandleFunc("POST /targets/{id}/send", u.handleSendRequest)
}

type indexData struct {
	Targets []*store.Target
	Recent  []*store.RequestLog
}

// handleIndex renders the target list with recent request activity.
func (u *UI) handleIndex(w http.ResponseWriter, r *http.Request) {
	targets, err := u.store.ListTargets(r.Context(), store.ListTargetsOptions{})
	if err != nil {
		u.renderError(w, http.StatusInternalServerError, err)
		return
	}
	recent, err := u.store.RecentRequests(r.Context(), 20)
	if err != nil {
		u.renderError(w, http.StatusInternalServerError, err)
		return
	}

	u.render(w, "index.html", indexData{Targets: targets, Recent: recent})
}

// handleCreateTarget handles the add-target form. HTMX callers get a row
// fragment back; plain form posts get a redirect.
func (u *UI) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		u.renderError(w, http.StatusBadRequest, err)
		return
	}

	port := 0
	if v := r.PostFormValue("port"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 0 || p > 65535 {
			u.renderError(w, http.StatusBadRequest, fmt.Errorf("invalid port %q", v))
			return
		}
		port = p
	}

	target := &store.Target{
		Name:   strings.TrimSpace(r.PostFormValue("name")),
		Host:   strings.TrimSpace(r.PostFormValue("host")),
		Port:   port,
		Scheme: r.PostFormValue("scheme"),
		Status: r.PostFormValue("status"),
		Notes:  r.PostFormValue("notes"),
	}
	if err := u.store.CreateTarget(r.Context(), target); err != nil {
		u.renderError(w, http.StatusBadRequest, err)
		return
	}

	if isHTMX(r) {
		u.render(w, "target_row.html", target)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type targetDetailData struct {
	Target   *store.Target
	Requests []*store.RequestLog
}

// handleTargetDetail renders one target with its request history.
func (u *UI) handleTargetDetail(w http.ResponseWriter, r *http.Request) {
	target, err := u.store.GetTarget(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			u.renderError(w, http.StatusNotFound, fmt.Errorf("target not found"))
		} else {
			u.renderError(w, http.StatusInternalServerError, err)
		}
		return
	}

	logs, err := u.store.ListRequests(r.Context(), store.ListRequestsOptions{TargetID: target.ID, Limit: 50})
	if err != nil {
		u.renderError(w, http.StatusInternalServerError, err)
		return
	}

	u.render(w, "target.html", targetDetailData{Target: target, Requests: logs})
}

// handleDeleteTarget removes a target; HTMX swaps the row away on 200.
func (u *UI) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	if err := u.store.DeleteTarget(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			u.renderError(w, http.StatusNotFound, fmt.Errorf("target not found"))
		} else {
			u.renderError(w, http.StatusInternalServerError, err)
		}
		return
	}

	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSendRequest executes a request against a target through the tool and
// records it, returning the refreshed history fragment.
func (u *UI) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	target, err := u.store.GetTarget(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			u.renderError(w, http.StatusNotFound, fmt.Errorf("target not found"))
		} else {
			u.renderError(w, http.StatusInternalServerError, err)
		}
		return
	}

	if err := r.ParseForm(); err != nil {
		u.renderError(w, http.StatusBadRequest, err)
		return
	}

	path := r.PostFormValue("path")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	method := r.PostFormValue("method")
	if method == "" {
		method = http.MethodGet
	}

	result, err := u.executor.Execute(r.Context(), httptool.Request{
		URL:    targetURL(target, path),
		Method: method,
	})
	if err != nil {
		u.renderError(w, http.StatusBadGateway, err)
		return
	}

	entry := &store.RequestLog{
		TargetID:   target.ID,
		Method:     strings.ToUpper(method),
		URL:        result.URL,
		StatusCode: result.StatusCode,
		ElapsedMS:  result.ElapsedMS,
		Headers:    result.Request.HeadersSent,
		ProxyUsed:  result.Request.ProxyUsed,
	}
	if err := u.store.RecordRequest(r.Context(), entry); err != nil {
		u.logger.Error("failed to record request log", log.Error(err))
	}

	logs, err := u.store.ListRequests(r.Context(), store.ListRequestsOptions{TargetID: target.ID, Limit: 50})
	if err != nil {
		u.renderError(w, http.StatusInternalServerError, err)
		return
	}

	if isHTMX(r) {
		u.render(w, "request_rows.html", logs)
		return
	}
	http.Redirect(w, r, "/targets/"+target.ID, http.StatusSeeOther)
}

// targetURL builds the base URL for a target plus a request path.
func targetURL(t *store.Target, path string) string {
	scheme := t.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := t.Host
	if t.Port > 0 {
		host = fmt.Sprintf("%s:%d", t.Host, t.Port)
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

func (u *UI) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := u.templates.ExecuteTemplate(w, name, data); err != nil {
		u.logger.Error("template render failed", slog.String("template", name), log.Error(err))
	}
}

func (u *UI) renderError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if terr := u.templates.ExecuteTemplate(w, "error.html", err.Error()); terr != nil {
		u.logger.Error("template render failed", slog.String("template", "error.html"), log.Error(terr))
	}
}

// isHTMX reports whether the request came from an HTMX swap.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
