// Package metrics exposes Prometheus metrics for scenario runs.
//
// A nil *Metrics is valid and records nothing, so callers pass nil to
// disable collection.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sharecheck"

// Case results.
const (
	ResultPassed  = "passed"
	ResultFailed  = "failed"
	ResultErrored = "errored"
)

// Request outcomes other than a decoded return code.
const (
	OutcomeTransport    = "transport_error"
	OutcomeUnauthorized = "unauthorized"
	OutcomeMalformed    = "malformed"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	casesTotal       *prometheus.CounterVec
	caseDuration     prometheus.Histogram
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	reloginsTotal    prometheus.Counter
	teardownFailures prometheus.Counter
	teardownRetries  prometheus.Counter
	violationsTotal  prometheus.Counter
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// New creates a Metrics registered on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg)
}

func newMetrics(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		casesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cases_total",
			Help:      "Scenario cases executed, by result.",
		}, []string{"result"}),
		caseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "case_duration_seconds",
			Help:      "Wall time of one case including setup and teardown.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Appliance API requests, by operation and return code or failure kind.",
		}, []string{"operation", "outcome"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of appliance API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		reloginsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relogins_total",
			Help:      "Requests retried after the session was rejected.",
		}),
		teardownFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardown_failures_total",
			Help:      "Teardown deletes that failed after all retries.",
		}),
		teardownRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardown_retries_total",
			Help:      "Teardown deletes retried after a transport error.",
		}),
		violationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_violations_total",
			Help:      "Statistics schema violations found.",
		}),
		lastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if every case of the last run passed, 0 otherwise.",
		}),
		lastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// ObserveCase records a finished case.
func (m *Metrics) ObserveCase(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.casesTotal.WithLabelValues(result).Inc()
	m.caseDuration.Observe(d.Seconds())
}

// ObserveRequest records a request that produced a return code.
func (m *Metrics) ObserveRequest(op string, code int, d time.Duration) {
	m.observeRequest(op, strconv.Itoa(code), d)
}

// ObserveRequestFailure records a request that produced no return code.
func (m *Metrics) ObserveRequestFailure(op, outcome string, d time.Duration) {
	m.observeRequest(op, outcome, d)
}

func (m *Metrics) observeRequest(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op, outcome).Inc()
	m.requestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncRelogin counts a request retried with a fresh session.
func (m *Metrics) IncRelogin() {
	if m != nil {
		m.reloginsTotal.Inc()
	}
}

// IncTeardownRetry counts one retried teardown delete.
func (m *Metrics) IncTeardownRetry() {
	if m != nil {
		m.teardownRetries.Inc()
	}
}

// IncTeardownFailure counts a teardown delete that gave up.
func (m *Metrics) IncTeardownFailure() {
	if m != nil {
		m.teardownFailures.Inc()
	}
}

// AddViolations counts schema violations.
func (m *Metrics) AddViolations(n int) {
	if m != nil && n > 0 {
		m.violationsTotal.Add(float64(n))
	}
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(success bool, at time.Time) {
	if m == nil {
		return
	}
	if success {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
	m.lastRunTimestamp.Set(float64(at.Unix()))
}

// Gatherer returns the gatherer the metrics are exported from.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.Gatherers{}
	}
	return m.gatherer
}
