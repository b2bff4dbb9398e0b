package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AppointmentsCreated prometheus.Counter
	UploadsTotal        *prometheus.CounterVec
	SignedURLsIssued    *prometheus.CounterVec
	DocumentsProcessed  *prometheus.CounterVec
	AICallsTotal        *prometheus.CounterVec
	SharesSent          prometheus.Counter

	RealtimeClients prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AppointmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "calendar",
			Name:      "appointments_created_total",
			Help:      "Total appointments created.",
		}),

		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "drive",
			Name:      "uploads_total",
			Help:      "Total file uploads by surface (drive, appointment, question, document).",
		}, []string{"surface"}),

		SignedURLsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "drive",
			Name:      "signed_urls_issued_total",
			Help:      "Signed URLs minted by purpose (download, share).",
		}, []string{"purpose"}),

		DocumentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "digitize",
			Name:      "documents_processed_total",
			Help:      "Digitized documents by final status.",
		}, []string{"status"}),

		AICallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Calls to the generative-language API by operation and outcome.",
		}, []string{"operation", "outcome"}),

		SharesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "drive",
			Name:      "shares_sent_total",
			Help:      "Share emails sent.",
		}),

		RealtimeClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "realtime",
			Name:      "connected_clients",
			Help:      "Currently connected WebSocket clients.",
		}),

		AuditEntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
