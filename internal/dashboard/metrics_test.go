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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.LogRecorded()
	a.LogRecorded()
	b.LogRecorded()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.RequestLogsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.RequestLogsRecorded))
}

func TestMetricsCountRequest(t *testing.T) {
	m := NewMetrics()

	m.CountRequest("GET /v1/targets", 200)
	m.CountRequest("GET /v1/targets", 201)
	m.CountRequest("GET /v1/targets", 404)
	m.CountRequest("POST /v1/requests", 502)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /v1/targets", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /v1/targets", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST /v1/requests", "5xx")))
}

func TestMetricsOutbound(t *testing.T) {
	m := NewMetrics()

	m.ObserveOutbound("GET", 120*time.Millisecond)
	m.ObserveOutbound("", 30*time.Millisecond) // empty method counts as GET
	m.OutboundFailed("timeout")
	m.OutboundFailed("timeout")
	m.OutboundFailed("connection_failure")

	count := testutil.CollectAndCount(m.OutboundDuration)
	assert.Equal(t, 1, count, "expected a single method label")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboundErrors.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboundErrors.WithLabelValues("connection_failure")))
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{504, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.status))
	}
}
