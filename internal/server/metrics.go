package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/msalah0e/mentorgraph/internal/view"
)

// Metrics are the Prometheus series of one live view host. Each instance
// owns its registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	events      *prometheus.CounterVec
	frozen      prometheus.Gauge
	exports     *prometheus.CounterVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	subscribers prometheus.Gauge
	frames      prometheus.Counter
	dropped     prometheus.Counter
	reloads     *prometheus.CounterVec
}

// NewMetrics registers every series on a fresh registry, Go runtime
// collectors included.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorgraph",
			Subsystem: "view",
			Name:      "events_total",
			Help:      "Notifications emitted by the graph view",
		}, []string{"kind"}),
		frozen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mentorgraph",
			Subsystem: "view",
			Name:      "frozen",
			Help:      "1 while forces are frozen",
		}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorgraph",
			Subsystem: "export",
			Name:      "snapshots_total",
			Help:      "Snapshot exports by outcome",
		}, []string{"outcome"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorgraph",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mentorgraph",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mentorgraph",
			Subsystem: "ws",
			Name:      "subscribers",
			Help:      "Connected websocket subscribers",
		}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorgraph",
			Subsystem: "ws",
			Name:      "frames_total",
			Help:      "State frames broadcast to subscribers",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorgraph",
			Subsystem: "ws",
			Name:      "frames_dropped_total",
			Help:      "Frames skipped for subscribers that fell behind",
		}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorgraph",
			Subsystem: "dataset",
			Name:      "reloads_total",
			Help:      "Dataset reloads triggered by file changes",
		}, []string{"result"}),
	}
}

// Notify implements view.Notifier.
func (m *Metrics) Notify(e view.Event) {
	m.events.WithLabelValues(string(e.Kind)).Inc()
	switch e.Kind {
	case view.FreezeToggled:
		if e.Frozen {
			m.frozen.Set(1)
		} else {
			m.frozen.Set(0)
		}
	case view.SimulationRestarted:
		m.frozen.Set(0)
	case view.SnapshotExported:
		outcome := "saved"
		switch {
		case e.Err != "":
			outcome = "failed"
		case e.Cancelled:
			outcome = "cancelled"
		}
		m.exports.WithLabelValues(outcome).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
