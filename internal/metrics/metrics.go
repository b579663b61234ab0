// Package metrics defines the Prometheus collectors for the live broadcast
// subsystem and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Live connection metrics
var (
	// ConnectedDisplays tracks the number of joined output displays.
	ConnectedDisplays = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_connected_displays",
			Help: "Number of WebSocket connections joined as output displays",
		},
	)

	// ConnectedProducers tracks the number of joined producer connections.
	ConnectedProducers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_connected_producers",
			Help: "Number of WebSocket connections joined as producers",
		},
	)

	// BroadcastsTotal counts published live events by event name.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_broadcasts_total",
			Help: "Total live events published, by event name",
		},
		[]string{"event"},
	)

	// SlowClientsEvicted counts clients dropped because their send buffer filled.
	SlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_slow_clients_evicted_total",
			Help: "Total WebSocket clients evicted due to a full send buffer",
		},
	)

	// CoordinatorCommandChannelDepth tracks the coordinator command queue depth.
	CoordinatorCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_coordinator_command_channel_depth",
			Help: "Current depth of the presence coordinator command channel",
		},
	)

	// WebSocketMessageSendDuration tracks per-message write latency.
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "Time to write a message to a WebSocket client",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures counts failed keepalive pings.
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping write failures",
		},
	)
)

// Card metrics
var (
	// CardsSentTotal counts successful card sends.
	CardsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_sent_total",
			Help: "Total cards sent to the live channel",
		},
	)

	// CardsClearedTotal counts clear operations.
	CardsClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_cleared_total",
			Help: "Total card clear operations",
		},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request latency by path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)
