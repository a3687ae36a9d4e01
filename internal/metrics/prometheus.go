package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_sessions_started_total",
			Help: "Total number of chat sessions admitted",
		},
		[]string{"model"},
	)

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_sessions_finished_total",
			Help: "Total number of chat sessions reaching a terminal state",
		},
		[]string{"model", "status"}, // status: done|failed
	)

	SessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexter_session_duration_seconds",
			Help:    "End-to-end chat session duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model"},
	)

	SessionReplans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dexter_session_replans_total",
			Help: "Total number of bounded re-plans triggered",
		},
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"}, // status: success|error
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexter_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	// Generation metrics
	GenerationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_generation_calls_total",
			Help: "Total number of text generation calls",
		},
		[]string{"provider", "model", "status"}, // status: success|error
	)

	GenerationTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_generation_tokens_total",
			Help: "Total tokens consumed by generation calls",
		},
		[]string{"model"},
	)

	// Admission metrics
	RequestsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_requests_rejected_total",
			Help: "Total number of chat requests rejected before a session started",
		},
		[]string{"reason"}, // reason: empty_query|unknown_model|entitlement|rate_limited
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|redis
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)

	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dexter_websocket_connections",
			Help: "Current number of active chat WebSocket connections",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsFinished)
	prometheus.MustRegister(SessionDuration)
	prometheus.MustRegister(SessionReplans)

	prometheus.MustRegister(ToolExecutions)
	prometheus.MustRegister(ToolLatency)

	prometheus.MustRegister(GenerationCalls)
	prometheus.MustRegister(GenerationTokens)

	prometheus.MustRegister(RequestsRejected)
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(WebSocketConnections)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SessionStarted records an admitted session.
func SessionStarted(model string) {
	SessionsStarted.WithLabelValues(model).Inc()
}

// SessionFinished records a session reaching done or failed.
func SessionFinished(model, status string, d time.Duration) {
	SessionsFinished.WithLabelValues(model, status).Inc()
	SessionDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ReplanTriggered records one bounded re-plan.
func ReplanTriggered() {
	SessionReplans.Inc()
}

// ToolExecuted records one tool execution outcome.
func ToolExecuted(tool string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	ToolExecutions.WithLabelValues(tool, status).Inc()
}

// RequestRejected records an admission refusal.
func RequestRejected(reason string) {
	RequestsRejected.WithLabelValues(reason).Inc()
}

// TokensUsed records token consumption for a model.
func TokensUsed(model string, tokens int) {
	if tokens > 0 {
		GenerationTokens.WithLabelValues(model).Add(float64(tokens))
	}
}
