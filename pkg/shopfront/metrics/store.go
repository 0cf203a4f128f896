package metrics

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metricsAlreadyRegistered struct {
	metricsName string
}

type metricsNotRegistered struct {
	metricsName string
}

func (e metricsAlreadyRegistered) Error() string {
	return fmt.Sprintf("Metrics %v already registered", e.metricsName)
}

func (e metricsNotRegistered) Error() string {
	return fmt.Sprintf("Metrics %v is not registered", e.metricsName)
}

type store struct {
	mu            sync.RWMutex
	counter       map[string]metric.Int64Counter
	upDownCounter map[string]metric.Float64UpDownCounter
	histogram     map[string]metric.Float64Histogram
	gauge         map[string]*gaugeValues
}

func newStore() *store {
	return &store{
		counter:       make(map[string]metric.Int64Counter),
		upDownCounter: make(map[string]metric.Float64UpDownCounter),
		histogram:     make(map[string]metric.Float64Histogram),
		gauge:         make(map[string]*gaugeValues),
	}
}

func (s *store) getCounter(name string) (metric.Int64Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.counter[name]
	if !ok {
		return nil, metricsNotRegistered{metricsName: name}
	}

	return m, nil
}

func (s *store) getUpDownCounter(name string) (metric.Float64UpDownCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.upDownCounter[name]
	if !ok {
		return nil, metricsNotRegistered{metricsName: name}
	}

	return m, nil
}

func (s *store) getHistogram(name string) (metric.Float64Histogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.histogram[name]
	if !ok {
		return nil, metricsNotRegistered{metricsName: name}
	}

	return m, nil
}

func (s *store) getGauge(name string) (*gaugeValues, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.gauge[name]
	if !ok {
		return nil, metricsNotRegistered{metricsName: name}
	}

	return m, nil
}

func (s *store) setCounter(name string, m metric.Int64Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counter[name]; ok {
		return metricsAlreadyRegistered{metricsName: name}
	}

	s.counter[name] = m

	return nil
}

func (s *store) setUpDownCounter(name string, m metric.Float64UpDownCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.upDownCounter[name]; ok {
		return metricsAlreadyRegistered{metricsName: name}
	}

	s.upDownCounter[name] = m

	return nil
}

func (s *store) setHistogram(name string, m metric.Float64Histogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.histogram[name]; ok {
		return metricsAlreadyRegistered{metricsName: name}
	}

	s.histogram[name] = m

	return nil
}

func (s *store) setGauge(name string) (*gaugeValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gauge[name]; ok {
		return nil, metricsAlreadyRegistered{metricsName: name}
	}

	g := &gaugeValues{values: make(map[attribute.Distinct]gaugeValue)}
	s.gauge[name] = g

	return g, nil
}
