package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	ReportsUploadedTotal  prometheus.Counter
	AppointmentsTotal     *prometheus.CounterVec
	MedicationsPrescribed prometheus.Counter
	DosesTakenTotal       prometheus.Counter
	MessagesSentTotal     prometheus.Counter

	AnalysisRunsTotal    prometheus.Counter
	AnalysisDuration     prometheus.Histogram
	SuggestionsTotal     *prometheus.CounterVec
	AnalysisCacheResults *prometheus.CounterVec

	NotificationsPublished *prometheus.CounterVec

	DBQueryDuration *prometheus.HistogramVec
	DBSlowQueries   prometheus.Counter

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewCollector registers every metric on a fresh registry along with the
// Go runtime and process collectors.
func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewCollectorWith(serviceName, reg, reg)
}

// NewCollectorWith registers on reg and serves /metrics from g.
func NewCollectorWith(serviceName string, reg prometheus.Registerer, g prometheus.Gatherer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		gatherer: g,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		ReportsUploadedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "reports_uploaded_total",
			Help:      "Total medical reports recorded.",
		}),

		AppointmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "appointments_total",
			Help:      "Appointment status changes by resulting status.",
		}, []string{"status"}),

		MedicationsPrescribed: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "medications_prescribed_total",
			Help:      "Total medications added to patient plans.",
		}),

		DosesTakenTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "doses_taken_total",
			Help:      "Total medication doses marked as taken.",
		}),

		MessagesSentTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "messaging",
			Name:      "messages_sent_total",
			Help:      "Total chat messages sent.",
		}),

		AnalysisRunsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Health trend analyses computed (cache hits excluded).",
		}),

		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time to load reports and compute a health trend analysis.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		SuggestionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "suggestions_total",
			Help:      "Suggestions produced by triggering condition.",
		}, []string{"condition"}),

		AnalysisCacheResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "cache_requests_total",
			Help:      "Analysis cache lookups by result (hit, miss, error).",
		}, []string{"result"}),

		NotificationsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "notify",
			Name:      "published_total",
			Help:      "Notifications published by type and outcome.",
		}, []string{"type", "outcome"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation"}),

		DBSlowQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "slow_queries_total",
			Help:      "Queries slower than the configured threshold.",
		}),

		AuditEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
