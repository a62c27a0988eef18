package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCase(ResultPassed, time.Second)
		m.ObserveRequest("create", 0, time.Millisecond)
		m.ObserveRequestFailure("create", OutcomeTransport, time.Millisecond)
		m.IncRelogin()
		m.IncTeardownRetry()
		m.IncTeardownFailure()
		m.AddViolations(3)
		m.ObserveRun(true, time.Now())
		_, _ = m.Gatherer().Gather()
		assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveCase(ResultPassed, 10*time.Millisecond)
	m.ObserveCase(ResultPassed, 20*time.Millisecond)
	m.ObserveCase(ResultFailed, 30*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.casesTotal.WithLabelValues(ResultPassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.casesTotal.WithLabelValues(ResultFailed)))

	m.ObserveRequest("create", 606, time.Millisecond)
	m.ObserveRequest("create", 606, time.Millisecond)
	m.ObserveRequestFailure("delete", OutcomeUnauthorized, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("create", "606")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("delete", OutcomeUnauthorized)))

	m.AddViolations(0)
	m.AddViolations(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.violationsTotal))

	m.IncTeardownRetry()
	m.IncTeardownFailure()
	m.IncRelogin()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.teardownRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.teardownFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloginsTotal))

	at := time.Unix(1700000000, 0)
	m.ObserveRun(false, at)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastRunSuccess))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastRunTimestamp))
	m.ObserveRun(true, at)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lastRunSuccess))
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestNewMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg, reg)
	m.IncRelogin()

	n, err := testutil.GatherAndCount(reg, "sharecheck_relogins_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveCase(ResultPassed, time.Millisecond)
	m.ObserveRun(true, time.Now())

	path := filepath.Join(t.TempDir(), "sharecheck.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `sharecheck_cases_total{result="passed"} 1`)
	assert.Contains(t, text, "sharecheck_last_run_success 1")
	assert.True(t, strings.Contains(text, "# TYPE sharecheck_case_duration_seconds histogram"))
}

func TestWriteTextfile_BadDir(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
