package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeValidation = "validation"
)

var (
	registry = prometheus.NewRegistry()

	optimizationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_optimizations_total",
		Help: "Total optimization requests by outcome",
	}, []string{"outcome"})

	fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_description_fetches_total",
		Help: "Total job description fetches by outcome",
	}, []string{"outcome"})

	parseFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "model_output_parse_fallback_total",
		Help: "Model outputs that could not be parsed as JSON",
	})

	modelCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "model_call_duration_seconds",
		Help:    "Model call latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		optimizationsTotal,
		fetchesTotal,
		parseFallbackTotal,
		modelCallDuration,
	)
}

// IncOptimization counts one optimize request.
func IncOptimization(outcome string) {
	optimizationsTotal.WithLabelValues(outcome).Inc()
}

// IncFetch counts one job description fetch.
func IncFetch(outcome string) {
	fetchesTotal.WithLabelValues(outcome).Inc()
}

// IncParseFallback counts a model output that fell back to raw text.
func IncParseFallback() {
	parseFallbackTotal.Inc()
}

// ObserveModelCall records how long a model call took.
func ObserveModelCall(provider, outcome string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	modelCallDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
