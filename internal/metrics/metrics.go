// Package metrics owns the prometheus collectors of the order service.
// All helpers are safe on a nil *Metrics so components can run without them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

type Metrics struct {
	OrdersCreated     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	Payments          *prometheus.CounterVec
	StockRejections   prometheus.Counter
	AuditFailures     prometheus.Counter
	TxDuration        *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPLatencyMS     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "created_total",
			Help: "Orders created.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "status_transitions_total",
			Help: "Applied order status transitions.",
		}, []string{"from", "to"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "payments", Name: "processed_total",
			Help: "Payment attempts by outcome.",
		}, []string{"provider", "outcome"}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "stock", Name: "rejections_total",
			Help: "Stock decrements rejected for insufficient quantity.",
		}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "audit", Name: "failures_total",
			Help: "Audit entries that could not be recorded.",
		}),
		TxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "tx", Name: "duration_seconds",
			Help:    "Transaction scope duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"scope", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_ms",
			Help:    "HTTP request latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.OrdersCreated, m.StatusTransitions, m.Payments, m.StockRejections,
		m.AuditFailures, m.TxDuration, m.HTTPRequests, m.HTTPLatencyMS,
	)
	return m
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Payment(provider, outcome string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) StockRejected() {
	if m == nil {
		return
	}
	m.StockRejections.Inc()
}

func (m *Metrics) AuditFailed() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

func (m *Metrics) ObserveTx(scope, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(scope, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPLatencyMS.WithLabelValues(route).Observe(float64(d.Milliseconds()))
}
