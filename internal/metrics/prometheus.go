package metrics

import (
	"net/http"
	"strconv"
	"time"

	"minichatbot/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus holds the exported collectors. Each instance owns its registry,
// so several can coexist in one process.
type Prometheus struct {
	registry    *prometheus.Registry
	asks        *prometheus.CounterVec
	askLatency  *prometheus.HistogramVec
	upstream    *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// NewPrometheus constructs and registers the collectors under namespace.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = core.MetricsNamespace
	}
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Ask requests by provider and result",
		}, []string{"provider", "result"}),
		askLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ask_duration_seconds",
			Help:      "Ask latency by provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_responses_total",
			Help:      "Provider HTTP responses by provider and status code",
		}, []string{"provider", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route/status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	p.registry.MustRegister(p.asks, p.askLatency, p.upstream, p.httpLatency)
	return p
}

func (p *Prometheus) observeAsk(result core.AskOutcome, provider string, duration time.Duration) {
	if provider == "" {
		provider = "none"
	}
	p.asks.WithLabelValues(provider, string(result)).Inc()
	p.askLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

func (p *Prometheus) observeUpstream(provider string, statusCode int) {
	p.upstream.WithLabelValues(provider, strconv.Itoa(statusCode)).Inc()
}

// ObserveHTTP records one served HTTP request.
func (p *Prometheus) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler for /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
