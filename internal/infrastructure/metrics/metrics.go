package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Support-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Messages appended, by sender type
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "messages_total",
			Help:      "Total support messages appended",
		},
		[]string{"sender"},
	)

	// Escalations, by trigger (explicit forward vs keyword match)
	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "escalations_total",
			Help:      "Conversations escalated to a human operator",
		},
		[]string{"trigger"},
	)

	// Gateway completion calls
	GatewayCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "gateway_calls_total",
			Help:      "Chat completion calls to the LLM gateway",
		},
		[]string{"status"},
	)

	// Gateway call duration
	GatewayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "gateway_duration_seconds",
			Help:      "LLM gateway call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Gateway failures by kind (rate_limited, unavailable, other)
	GatewayFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "gateway_failures_total",
			Help:      "Failed gateway calls by failure kind",
		},
		[]string{"kind"},
	)

	// Active websocket subscribers
	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "connecthub",
			Subsystem: "support_api",
			Name:      "realtime_subscribers",
			Help:      "Currently connected realtime subscribers",
		},
	)
)
