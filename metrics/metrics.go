// Package metrics exposes prometheus instrumentation for gateway traffic
// and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetd_gateway_calls_total",
			Help: "Gateway invocations by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetd_gateway_call_duration_seconds",
			Help:    "Duration of gateway invocations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetd_http_requests_total",
			Help: "HTTP API requests by route and status class",
		},
		[]string{"route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetd_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(gatewayCalls, gatewayDuration, httpRequests, httpDuration)
}

// ObserveGatewayCall records one gateway invocation.
func ObserveGatewayCall(command string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	gatewayCalls.WithLabelValues(command, outcome).Inc()
	gatewayDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObserveHTTPRequest records one API request.
func ObserveHTTPRequest(route, status string, d time.Duration) {
	httpRequests.WithLabelValues(route, status).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
