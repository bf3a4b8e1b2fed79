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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dashboard's Prometheus collectors. Collectors register
// against an explicit registry so tests can build isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTPRequests counts dashboard requests by route and status class.
	HTTPRequests *prometheus.CounterVec

	// OutboundDuration observes outbound tool request durations.
	OutboundDuration *prometheus.HistogramVec

	// OutboundErrors counts failed outbound requests by error kind.
	OutboundErrors *prometheus.CounterVec

	// RequestLogsRecorded counts request log inserts.
	RequestLogsRecorded prometheus.Counter
}

// NewMetrics creates the collector set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hiro_http_requests_total",
				Help: "Dashboard HTTP requests by route and status class.",
			},
			[]string{"route", "status"},
		),
		OutboundDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hiro_outbound_request_duration_seconds",
				Help:    "Outbound HTTP tool request duration.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		OutboundErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hiro_outbound_request_errors_total",
				Help: "Failed outbound HTTP tool requests by error kind.",
			},
			[]string{"kind"},
		),
		RequestLogsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hiro_request_logs_recorded_total",
				Help: "Request log entries persisted.",
			},
		),
	}
}

// ObserveOutbound records one outbound tool request duration.
func (m *Metrics) ObserveOutbound(method string, elapsed time.Duration) {
	if method == "" {
		method = http.MethodGet
	}
	m.OutboundDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// OutboundFailed counts a failed outbound request by error kind.
func (m *Metrics) OutboundFailed(kind string) {
	m.OutboundErrors.WithLabelValues(kind).Inc()
}

// LogRecorded counts one persisted request log entry.
func (m *Metrics) LogRecorded() {
	m.RequestLogsRecorded.Inc()
}

// CountRequest counts one dashboard HTTP request.
func (m *Metrics) CountRequest(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
