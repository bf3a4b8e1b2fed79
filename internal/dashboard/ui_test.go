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
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwkeefer/hiro/internal/dashboard/store"
	"github.com/kwkeefer/hiro/internal/httptool"
)

// fakeExecutor returns a canned result without network I/O.
type fakeExecutor struct {
	result *httptool.Result
	err    error
	last   httptool.Request
}

func (f *fakeExecutor) Execute(ctx context.Context, req httptool.Request) (*httptool.Result, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newUIMux(t *testing.T, exec *fakeExecutor) (*http.ServeMux, *store.SQLiteStore) {
	t.Helper()
	s, err := store.New(store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ui, err := NewUI(s, exec, nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	ui.RegisterRoutes(mux)
	return mux, s
}

func postForm(mux *http.ServeMux, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestUIIndex(t *testing.T) {
	mux, s := newUIMux(t, &fakeExecutor{})

	target := &store.Target{Name: "staging-api", Host: "api.staging.example.com"}
	require.NoError(t, s.CreateTarget(context.Background(), target))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "staging-api")
	assert.Contains(t, rec.Body.String(), "api.staging.example.com")
}

func TestUICreateTarget(t *testing.T) {
	mux, s := newUIMux(t, &fakeExecutor{})

	form := url.Values{
		"name": {"new-target"},
		"host": {"h.example.com"},
		"port": {"8080"},
	}

	// HTMX post gets a row fragment back
	rec := postForm(mux, "/targets", form, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new-target")
	assert.Contains(t, rec.Body.String(), "h.example.com:8080")
	assert.NotContains(t, rec.Body.String(), "<html", "fragment must not include the layout")

	// Plain form post redirects home
	form.Set("name", "second-target")
	rec = postForm(mux, "/targets", form, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	targets, err := s.ListTargets(context.Background(), store.ListTargetsOptions{})
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestUICreateTargetInvalidPort(t *testing.T) {
	mux, _ := newUIMux(t, &fakeExecutor{})

	rec := postForm(mux, "/targets", url.Values{
		"name": {"n"},
		"host": {"h"},
		"port": {"70000"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid port")
}

func TestUITargetDetail(t *testing.T) {
	mux, s := newUIMux(t, &fakeExecutor{})
	ctx := context.Background()

	target := &store.Target{Name: "api", Host: "h.example.com"}
	require.NoError(t, s.CreateTarget(ctx, target))
	require.NoError(t, s.RecordRequest(ctx, &store.RequestLog{
		TargetID:   target.ID,
		Method:     "GET",
		URL:        "https://h.example.com/login",
		StatusCode: 302,
		ElapsedMS:  18.4,
	}))

	req := httptest.NewRequest(http.MethodGet, "/targets/"+target.ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://h.example.com/login")
	assert.Contains(t, rec.Body.String(), "302")

	req = httptest.NewRequest(http.MethodGet, "/targets/missing", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUIDeleteTarget(t *testing.T) {
	mux, s := newUIMux(t, &fakeExecutor{})

	target := &store.Target{Name: "api", Host: "h"}
	require.NoError(t, s.CreateTarget(context.Background(), target))

	req := httptest.NewRequest(http.MethodDelete, "/targets/"+target.ID, nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := s.GetTarget(context.Background(), target.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUISendRequest(t *testing.T) {
	exec := &fakeExecutor{
		result: &httptool.Result{
			StatusCode: 200,
			URL:        "https://h.example.com:8443/health",
			ElapsedMS:  12.0,
			Request: httptool.RequestRecord{
				ProxyUsed: "http://127.0.0.1:8080",
			},
		},
	}
	mux, s := newUIMux(t, exec)
	ctx := context.Background()

	target := &store.Target{Name: "api", Host: "h.example.com", Port: 8443}
	require.NoError(t, s.CreateTarget(ctx, target))

	rec := postForm(mux, "/targets/"+target.ID+"/send", url.Values{
		"path":   {"health"},
		"method": {"GET"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	// Path is normalized and the target's scheme, host, and port are applied
	assert.Equal(t, "https://h.example.com:8443/health", exec.last.URL)

	// The fragment shows the refreshed history
	assert.Contains(t, rec.Body.String(), "https://h.example.com:8443/health")
	assert.Contains(t, rec.Body.String(), "http://127.0.0.1:8080")

	logs, err := s.ListRequests(ctx, store.ListRequestsOptions{TargetID: target.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 200, logs[0].StatusCode)
}

func TestUISendRequestToolFailure(t *testing.T) {
	exec := &fakeExecutor{err: &httptool.ConnectionError{URL: "https://h/"}}
	mux, s := newUIMux(t, exec)

	target := &store.Target{Name: "api", Host: "h"}
	require.NoError(t, s.CreateTarget(context.Background(), target))

	rec := postForm(mux, "/targets/"+target.ID+"/send", url.Values{"path": {"/"}}, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	logs, err := s.ListRequests(context.Background(), store.ListRequestsOptions{})
	require.NoError(t, err)
	assert.Empty(t, logs, "failed sends leave no history entry")
}

func TestTargetURL(t *testing.T) {
	tests := []struct {
		name   string
		target store.Target
		path   string
		want   string
	}{
		{
			name:   "defaults to https",
			target: store.Target{Host: "h.example.com"},
			path:   "/",
			want:   "https://h.example.com/",
		},
		{
			name:   "explicit scheme and port",
			target: store.Target{Host: "h", Scheme: "http", Port: 8080},
			path:   "/admin",
			want:   "http://h:8080/admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, targetURL(&tt.target, tt.path))
		})
	}
}
