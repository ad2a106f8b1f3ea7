package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. It carries its
// own registry so tests can create collectors freely without duplicate
// registration panics.
type Collector struct {
	registry *prometheus.Registry

	// Simulation metrics
	TicksTotal      prometheus.Counter
	TickDuration    prometheus.Histogram
	NumericalFaults prometheus.Counter
	FramesSent      prometheus.Counter
	FramesDropped   prometheus.Counter

	// Pipeline metrics
	GraphBuilds      prometheus.Counter
	DiagnosticsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_ticks_total",
			Help:      "Total number of simulation ticks executed",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_tick_duration_seconds",
			Help:      "Duration of one step+export tick",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .032, .064},
		}),
		NumericalFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_numerical_faults_total",
			Help:      "Node updates discarded because a result went non-finite",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_frames_sent_total",
			Help:      "Layout frames delivered to subscribers",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_frames_dropped_total",
			Help:      "Layout frames dropped because a subscriber was slow",
		}),
		GraphBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_builds_total",
			Help:      "Link graph pipeline runs",
		}),
		DiagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_diagnostics_total",
			Help:      "Excluded references by reason",
		}, []string{"reason"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		c.TicksTotal,
		c.TickDuration,
		c.NumericalFaults,
		c.FramesSent,
		c.FramesDropped,
		c.GraphBuilds,
		c.DiagnosticsTotal,
		c.HTTPRequests,
		c.HTTPDuration,
	)

	return c
}

// ObserveTick records one completed tick
func (c *Collector) ObserveTick(duration time.Duration, faults int) {
	c.TicksTotal.Inc()
	c.TickDuration.Observe(duration.Seconds())
	if faults > 0 {
		c.NumericalFaults.Add(float64(faults))
	}
}

// Handler exposes the collector's registry for scraping
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
