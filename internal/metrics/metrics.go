package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Live channel metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopchat_ws_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopchat_messages_relayed_total",
			Help: "Chat messages relayed through the hub",
		},
		[]string{"sender_role"},
	)

	SendsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopchat_sends_rejected_total",
			Help: "Send attempts nacked by the hub",
		},
		[]string{"reason"},
	)

	TypingEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopchat_typing_events_total",
			Help: "Typing notifications relayed",
		},
	)

	// Storage metrics
	HistoryFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopchat_history_fetches_total",
			Help: "History endpoint requests",
		},
		[]string{"source"}, // "cache" or "store"
	)

	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopchat_store_latency_seconds",
			Help:    "Message store operation latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
		[]string{"op"},
	)
)
