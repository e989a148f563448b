package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the consent site.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	AcceptsRegistered *prometheus.CounterVec
	DeclinesTotal     prometheus.Counter

	// Performance metrics
	StoreOperationLatency *prometheus.HistogramVec
}

// New registers the collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_requests_total",
			Help: "Total number of HTTP requests, labeled by route, method and status",
		}, []string{"route", "method", "status"}),
		AcceptsRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_accepts_registered_total",
			Help: "Total number of accept registrations, labeled by the derived testbed access flag",
		}, []string{"testbed_access"}),
		DeclinesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gdpr_declines_total",
			Help: "Total number of decline registrations",
		}),

		StoreOperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gdpr_store_operation_seconds",
			Help:    "Latency of consent store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementRequests(route, method string, status int) {
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) IncrementAcceptsRegistered(testbedAccess bool) {
	m.AcceptsRegistered.WithLabelValues(strconv.FormatBool(testbedAccess)).Inc()
}

func (m *Metrics) IncrementDeclines() {
	m.DeclinesTotal.Inc()
}

// ObserveStoreOperationLatency records the latency of a store operation.
func (m *Metrics) ObserveStoreOperationLatency(operation string, durationSeconds float64) {
	m.StoreOperationLatency.WithLabelValues(operation).Observe(durationSeconds)
}
