package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	metricSdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"shopfront.dev/pkg/shopfront/version"
)

// Prometheus builds a meter whose instruments are collected by a dedicated registry. The registry is
// returned so it can be served by Handler; it is never the global default registerer.
func Prometheus(appName, appVersion string) (metric.Meter, *prometheus.Registry) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry), otelprom.WithoutTargetInfo(), otelprom.WithoutScopeInfo())
	if err != nil {
		return noop.NewMeterProvider().Meter(appName), registry
	}

	meter := metricSdk.NewMeterProvider(
		metricSdk.WithReader(exporter),
		metricSdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			attribute.String("framework_version", version.Framework),
		))).Meter(appName, metric.WithInstrumentationVersion(appVersion))

	return meter, registry
}
