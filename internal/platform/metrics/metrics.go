package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payroll"

type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	rateLimited     prometheus.Counter

	calculationsTotal *prometheus.CounterVec
	topBracketTotal   *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by status class.",
		}, []string{"class"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		calculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Net-to-gross calculations by outcome.",
		}, []string{"outcome"}),
		topBracketTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculation_top_bracket_total",
			Help:      "Highest PIT bracket reached per calculation, 0 when untaxed.",
		}, []string{"level"}),
	}
	c.registry.MustRegister(c.requestsTotal, c.requestDuration, c.rateLimited, c.calculationsTotal, c.topBracketTotal)
	return c
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(statusClass(status)).Inc()
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
	c.requestDuration.Observe(duration.Seconds())
}

// ObserveCalculation satisfies payroll.CalculationRecorder.
func (c *Collector) ObserveCalculation(outcome string, topBracket int) {
	c.calculationsTotal.WithLabelValues(outcome).Inc()
	c.topBracketTotal.WithLabelValues(strconv.Itoa(topBracket)).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
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
