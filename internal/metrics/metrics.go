// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grouppay"

// Metrics holds every collector. A nil *Metrics records nothing, so callers
// never need to check.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	expenses       *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	deletions      prometheus.Counter
	settlementSize prometheus.Histogram
	lockWait       prometheus.Histogram
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		expenses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_created_total",
			Help:      "Expenses recorded, by split kind.",
		}, []string{"split_kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_rejected_total",
			Help:      "Proposed expenses rejected by validation, by error kind.",
		}, []string{"kind"}),
		deletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_deleted_total",
			Help:      "Expenses deleted and reversed.",
		}),
		settlementSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transfers",
			Help:      "Number of transfers in computed settlement plans.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "group_lock_wait_seconds",
			Help:      "Time spent waiting for a group lock.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.expenses, m.rejections, m.deletions, m.settlementSize, m.lockWait)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ExpenseCreated(splitKind string) {
	if m == nil {
		return
	}
	m.expenses.WithLabelValues(splitKind).Inc()
}

func (m *Metrics) ExpenseRejected(kind string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) ExpenseDeleted() {
	if m == nil {
		return
	}
	m.deletions.Inc()
}

func (m *Metrics) SettlementComputed(transfers int) {
	if m == nil {
		return
	}
	m.settlementSize.Observe(float64(transfers))
}

func (m *Metrics) LockWaited(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
