package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront.dev/pkg/shopfront/logging"
	"shopfront.dev/pkg/shopfront/testutil"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	return string(body)
}

func newTestManager(t *testing.T) (Manager, http.Handler) {
	t.Helper()

	meter, registry := Prometheus("metrics-test", "v1")
	m := NewMetricsManager(meter, logging.NewMockLogger(logging.ERROR))

	for _, g := range []string{"app_go_routines", "app_sys_memory_alloc", "app_sys_total_alloc", "app_go_numGC", "app_go_sys"} {
		m.NewGauge(g, g)
	}

	return m, GetHandler(m, registry)
}

func TestMetricsManager_Counter(t *testing.T) {
	m, h := newTestManager(t)

	m.NewCounter("test_probe_total", "probe count")
	m.IncrementCounter(context.Background(), "test_probe_total", "store", "redis")
	m.IncrementCounter(context.Background(), "test_probe_total", "store", "redis")

	body := scrape(t, h)

	assert.Contains(t, body, `test_probe_total{store="redis"} 2`)
}

func TestMetricsManager_UpDownCounter(t *testing.T) {
	m, h := newTestManager(t)

	m.NewUpDownCounter("test_in_flight", "in flight requests")
	m.DeltaUpDownCounter(context.Background(), "test_in_flight", 3)
	m.DeltaUpDownCounter(context.Background(), "test_in_flight", -1)

	assert.Contains(t, scrape(t, h), "test_in_flight 2")
}

func TestMetricsManager_Histogram(t *testing.T) {
	m, h := newTestManager(t)

	m.NewHistogram("test_latency", "latency", .01, .1, 1)
	m.RecordHistogram(context.Background(), "test_latency", .05, "store", "postgres")

	body := scrape(t, h)

	assert.Contains(t, body, `test_latency_bucket{store="postgres",le="0.1"} 1`)
	assert.Contains(t, body, `test_latency_count{store="postgres"} 1`)
}

func TestMetricsManager_GaugeKeepsLastValue(t *testing.T) {
	m, h := newTestManager(t)

	m.NewGauge("test_ready", "readiness")
	m.SetGauge("test_ready", 1, "store", "redis")
	m.SetGauge("test_ready", 0, "store", "redis")
	m.SetGauge("test_ready", 1, "store", "postgres")

	body := scrape(t, h)

	assert.Contains(t, body, `test_ready{store="redis"} 0`)
	assert.Contains(t, body, `test_ready{store="postgres"} 1`)
	assert.Contains(t, body, "app_go_routines")
}

func TestMetricsManager_UnregisteredMetricIsLogged(t *testing.T) {
	out := testutil.StderrOutputForFunc(func() {
		meter, _ := Prometheus("metrics-test", "v1")
		m := NewMetricsManager(meter, logging.NewMockLogger(logging.ERROR))

		m.IncrementCounter(context.Background(), "missing_counter")
		m.RecordHistogram(context.Background(), "missing_histogram", 1)
		m.DeltaUpDownCounter(context.Background(), "missing_updown", 1)
		m.SetGauge("missing_gauge", 1)
	})

	assert.Equal(t, 4, strings.Count(out, "is not registered"))
}

func TestMetricsManager_DuplicateRegistrationIsLogged(t *testing.T) {
	out := testutil.StderrOutputForFunc(func() {
		meter, _ := Prometheus("metrics-test", "v1")
		m := NewMetricsManager(meter, logging.NewMockLogger(logging.ERROR))

		m.NewCounter("dup_counter", "first")
		m.NewCounter("dup_counter", "second")
	})

	assert.Contains(t, out, "Metrics dup_counter already registered")
}

func TestMetricsManager_OddLabelsWarn(t *testing.T) {
	out := testutil.StdoutOutputForFunc(func() {
		meter, _ := Prometheus("metrics-test", "v1")
		m := NewMetricsManager(meter, logging.NewMockLogger(logging.WARN))

		m.NewCounter("odd_counter", "odd labels")
		m.IncrementCounter(context.Background(), "odd_counter", "store")
	})

	assert.Contains(t, out, "Metrics odd_counter label has invalid key-value pairs")
}
