package metrics

import "github.com/prometheus/client_golang/prometheus"

// Question pipeline Prometheus metrics.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ellie",
			Name:      "questions_total",
			Help:      "Total number of answered questions",
		},
		[]string{"course", "status"}, // status: "ok" / "degraded"
	)

	QuestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ellie",
			Name:      "question_duration_seconds",
			Help:      "End-to-end question answering duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"course"},
	)

	RouterDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ellie",
			Name:      "router_decisions_total",
			Help:      "Routing decisions by label, including fallbacks",
		},
		[]string{"decision"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ellie",
			Name:      "chat_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	ChatRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ellie",
			Name:      "chat_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model"},
	)

	WebSearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ellie",
			Name:      "web_search_requests_total",
			Help:      "Total number of web search provider requests",
		},
		[]string{"status"}, // "ok" / "error"
	)

	WebSearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ellie",
			Name:      "web_search_cache_total",
			Help:      "Web search cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(QuestionDuration)
	prometheus.MustRegister(RouterDecisionsTotal)
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(ChatRequestDuration)
	prometheus.MustRegister(WebSearchRequestsTotal)
	prometheus.MustRegister(WebSearchCacheTotal)
	pipelineMetricsRegistered = true
}
