// Package metrics records application metrics through an OpenTelemetry meter and exposes them in the
// Prometheus exposition format.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Errors are logged rather than returned so that call sites stay a single line.

type Manager interface {
	NewCounter(name, desc string)
	NewUpDownCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	DeltaUpDownCounter(ctx context.Context, name string, value float64, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)
}

type Logger interface {
	Error(args ...any)
	Errorf(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
}

type metricsManager struct {
	meter  metric.Meter
	store  *store
	logger Logger
}

// NewMetricsManager returns a Manager recording into meter.
func NewMetricsManager(meter metric.Meter, logger Logger) Manager {
	return &metricsManager{
		meter:  meter,
		store:  newStore(),
		logger: logger,
	}
}

// NewCounter registers a monotonically increasing counter.
//
//	Usage: m.NewCounter("app_health_checks_total", "Number of health checks served")
func (m *metricsManager) NewCounter(name, desc string) {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error(err)

		return
	}

	if err = m.store.setCounter(name, counter); err != nil {
		m.logger.Error(err)
	}
}

// NewUpDownCounter registers a counter that may go down as well as up.
func (m *metricsManager) NewUpDownCounter(name, desc string) {
	upDownCounter, err := m.meter.Float64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error(err)

		return
	}

	if err = m.store.setUpDownCounter(name, upDownCounter); err != nil {
		m.logger.Error(err)
	}
}

// NewHistogram registers a histogram with explicit bucket boundaries.
//
//	Usage: m.NewHistogram("app_http_response", "Response time in seconds", .001, .01, .1, 1)
//
// Each recorded value falls in the first bucket whose upper bound is greater than or equal to it; the
// implicit last bucket holds everything above the highest boundary.
func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	histogram, err := m.meter.Float64Histogram(name, metric.WithDescription(desc),
		metric.WithExplicitBucketBoundaries(buckets...))
	if err != nil {
		m.logger.Error(err)

		return
	}

	if err = m.store.setHistogram(name, histogram); err != nil {
		m.logger.Error(err)
	}
}

// NewGauge registers a gauge. The last value set for each label combination is reported on every collection.
func (m *metricsManager) NewGauge(name, desc string) {
	gauge, err := m.meter.Float64ObservableGauge(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error(err)

		return
	}

	values, err := m.store.setGauge(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		values.observe(o, gauge)

		return nil
	}, gauge)
	if err != nil {
		m.logger.Error(err)
	}
}

// IncrementCounter adds 1 to a registered counter. Labels are alternating name and value pairs.
//
//	Usage: m.IncrementCounter(ctx, "app_health_probe_failures_total", "store", "redis")
func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...string) {
	counter, err := m.store.getCounter(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	counter.Add(ctx, 1, metric.WithAttributes(m.getAttributes(name, labels...)...))
}

// DeltaUpDownCounter adds value, which may be negative, to a registered up-down counter.
func (m *metricsManager) DeltaUpDownCounter(ctx context.Context, name string, value float64, labels ...string) {
	upDownCounter, err := m.store.getUpDownCounter(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	upDownCounter.Add(ctx, value, metric.WithAttributes(m.getAttributes(name, labels...)...))
}

// RecordHistogram records value in a registered histogram.
func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...string) {
	histogram, err := m.store.getHistogram(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	histogram.Record(ctx, value, metric.WithAttributes(m.getAttributes(name, labels...)...))
}

// SetGauge sets the current value of a registered gauge.
//
//	Usage: m.SetGauge("app_info", 1, "app_name", "shopfront")
func (m *metricsManager) SetGauge(name string, value float64, labels ...string) {
	values, err := m.store.getGauge(name)
	if err != nil {
		m.logger.Error(err)

		return
	}

	values.set(attribute.NewSet(m.getAttributes(name, labels...)...), value)
}

// getAttributes converts alternating label names and values to otel attributes.
func (m *metricsManager) getAttributes(name string, labels ...string) []attribute.KeyValue {
	labelsCount := len(labels)
	if labelsCount%2 != 0 {
		m.logger.Warnf("Metrics %v label has invalid key-value pairs", name)
	}

	const cardinalityLimit = 20
	if labelsCount > cardinalityLimit {
		m.logger.Warnf("Metrics %v has high cardinality: %v", name, labelsCount)
	}

	attributes := make([]attribute.KeyValue, 0, labelsCount/2)

	for i := 0; i < labelsCount-1; i += 2 {
		attributes = append(attributes, attribute.String(labels[i], labels[i+1]))
	}

	return attributes
}

type gaugeValues struct {
	mu     sync.RWMutex
	values map[attribute.Distinct]gaugeValue
}

type gaugeValue struct {
	attrs attribute.Set
	value float64
}

func (g *gaugeValues) set(attrs attribute.Set, value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.values[attrs.Equivalent()] = gaugeValue{attrs: attrs, value: value}
}

func (g *gaugeValues) observe(o metric.Observer, gauge metric.Float64ObservableGauge) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, v := range g.values {
		o.ObserveFloat64(gauge, v.value, metric.WithAttributeSet(v.attrs))
	}
}
