// Package metrics exposes Prometheus collectors for the HTTP server and the
// recommendation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bcnelson/spark/pkg/spark"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spark"

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry          *prometheus.Registry
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	batchesTotal      *prometheus.CounterVec
	candidatesTotal   *prometheus.CounterVec
	generationFailure prometheus.Counter
}

func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "route", "status"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "batches_total",
			Help:      "Recommendation batches served, by where they came from.",
		}, []string{"source"}),
		candidatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "candidates_total",
			Help:      "Generated candidates screened, by outcome.",
		}, []string{"result"}),
		generationFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendations",
			Name:      "generation_failures_total",
			Help:      "Generation attempts that produced no usable batch.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.batchesTotal,
		c.candidatesTotal,
		c.generationFailure,
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records every request against its route template, so ids in
// paths do not explode label cardinality.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())

		c.requestTotal.WithLabelValues(ctx.Request.Method, route, status).Inc()
		c.requestDuration.WithLabelValues(ctx.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) BatchServed(source spark.BatchSource, size int) {
	c.batchesTotal.WithLabelValues(string(source)).Inc()
}

func (c *Collector) CandidateScreened(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	c.candidatesTotal.WithLabelValues(result).Inc()
}

func (c *Collector) GenerationFailed() {
	c.generationFailure.Inc()
}

var _ spark.Observer = (*Collector)(nil)
