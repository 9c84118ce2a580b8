// Package stats records what happened to generation requests and exposes the
// counters as Prometheus metrics. The terminal Ollama event carries timing
// fields next to the done flag; those are picked out of the raw payload here
// rather than widening the event decode for everyone else.
package stats

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

const (
	namespace = "pocopilot"

	evalCountPath    = "eval_count"
	evalDurationPath = "eval_duration" // nanoseconds
	totalDuration    = "total_duration"
)

// PrometheusCollector implements ports.StatsCollector on a private registry.
type PrometheusCollector struct {
	registry *prometheus.Registry
	logger   logger.StyledLogger

	requests        *prometheus.CounterVec
	chunks          prometheus.Counter
	bytesStreamed   prometheus.Counter
	evalTokens      prometheus.Counter
	upstreamLatency prometheus.Histogram
	tokensPerSecond prometheus.Histogram
	generationTime  prometheus.Histogram
}

func NewPrometheusCollector(logger logger.StyledLogger) *PrometheusCollector {
	registry := prometheus.NewRegistry()

	c := &PrometheusCollector{
		registry: registry,
		logger:   logger,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Generation requests by final outcome.",
		}, []string{"outcome"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Outbound text chunks relayed to callers.",
		}),
		bytesStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_bytes_total",
			Help:      "Outbound bytes relayed to callers.",
		}),
		evalTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eval_tokens_total",
			Help:      "Tokens generated by the backend, from terminal events.",
		}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_connect_seconds",
			Help:      "Time from request arrival to the upstream stream opening.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		tokensPerSecond: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_tokens_per_second",
			Help:      "Backend generation speed derived from terminal event metrics.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 400},
		}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Whole-generation duration reported by the backend.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
	}

	registry.MustRegister(
		c.requests,
		c.chunks,
		c.bytesStreamed,
		c.evalTokens,
		c.upstreamLatency,
		c.tokensPerSecond,
		c.generationTime,
	)

	return c
}

func (c *PrometheusCollector) RecordOutcome(outcome string) {
	c.requests.WithLabelValues(outcome).Inc()
}

func (c *PrometheusCollector) RecordChunk(bytes int) {
	c.chunks.Inc()
	c.bytesStreamed.Add(float64(bytes))
}

func (c *PrometheusCollector) RecordUpstreamLatency(d time.Duration) {
	c.upstreamLatency.Observe(d.Seconds())
}

// RecordCompletion extracts generation metrics from the terminal event's raw
// payload. Fields are optional in the wire format; anything absent is simply
// not observed.
func (c *PrometheusCollector) RecordCompletion(terminalEvent []byte) {
	if len(terminalEvent) == 0 {
		return
	}

	evalCount := gjson.GetBytes(terminalEvent, evalCountPath)
	evalDuration := gjson.GetBytes(terminalEvent, evalDurationPath)

	if evalCount.Exists() {
		c.evalTokens.Add(evalCount.Float())
	}

	if evalCount.Exists() && evalDuration.Exists() && evalDuration.Float() > 0 {
		tps := evalCount.Float() / (evalDuration.Float() / float64(time.Second))
		c.tokensPerSecond.Observe(tps)
	}

	if total := gjson.GetBytes(terminalEvent, totalDuration); total.Exists() && total.Float() > 0 {
		c.generationTime.Observe(total.Float() / float64(time.Second))
	}
}

// Handler serves the scrape endpoint for this collector's registry
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
