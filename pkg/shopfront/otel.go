package shopfront

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"shopfront.dev/pkg/shopfront/logging"
)

// initTracer installs the global tracer provider. Spans are only exported when TRACE_EXPORTER and
// TRACER_URL are both set.
func (a *App) initTracer() {
	traceRatio, err := strconv.ParseFloat(a.Config.GetOrDefault("TRACER_RATIO", "1"), 64)
	if err != nil {
		a.container.Errorf("invalid TRACER_RATIO, sampling every trace: %v", err)

		traceRatio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(a.container.GetAppName()),
			semconv.ServiceVersion(a.container.GetAppVersion()),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(traceRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetErrorHandler(&otelErrorHandler{logger: a.container.Logger})

	a.tracerProvider = tp

	traceExporter := a.Config.Get("TRACE_EXPORTER")
	tracerURL := a.Config.Get("TRACER_URL")

	if !isValidTracerConfig(a.container.Logger, traceExporter, tracerURL) {
		return
	}

	exporter, err := getExporter(a.container.Logger, traceExporter, tracerURL, a.Config.Get("TRACER_AUTH_KEY"))
	if err != nil {
		a.container.Errorf("could not create %s trace exporter: %v", traceExporter, err)

		return
	}

	if exporter != nil {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}
}

func isValidTracerConfig(logger logging.Logger, name, url string) bool {
	switch {
	case url == "" && name == "":
		logger.Debug("tracing is disabled, as configs are not provided")

		return false
	case name == "":
		logger.Error("missing TRACE_EXPORTER config, should be provided with TRACER_URL to enable tracing")

		return false
	case url == "":
		logger.Error("missing TRACER_URL config, should be provided with TRACE_EXPORTER to enable tracing")

		return false
	}

	return true
}

func getExporter(logger logging.Logger, name, url, authHeader string) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(name) {
	case "otlp", "jaeger":
		return buildOtlpExporter(logger, name, url, authHeader)
	case "zipkin":
		return buildZipkinExporter(logger, url, authHeader)
	default:
		logger.Errorf("unsupported TRACE_EXPORTER: %s", name)

		return nil, nil
	}
}

// buildOtlpExporter exports over OTLP/gRPC, which jaeger accepts as well.
func buildOtlpExporter(logger logging.Logger, name, url, authHeader string) (sdktrace.SpanExporter, error) {
	logger.Infof("Exporting traces to %s at %s", strings.ToLower(name), url)

	opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure(), otlptracegrpc.WithEndpoint(url)}

	if authHeader != "" {
		opts = append(opts, otlptracegrpc.WithHeaders(map[string]string{"Authorization": authHeader}))
	}

	return otlptracegrpc.New(context.Background(), opts...)
}

func buildZipkinExporter(logger logging.Logger, url, authHeader string) (sdktrace.SpanExporter, error) {
	logger.Infof("Exporting traces to zipkin at %s", url)

	var opts []zipkin.Option
	if authHeader != "" {
		opts = append(opts, zipkin.WithHeaders(map[string]string{"Authorization": authHeader}))
	}

	return zipkin.New(url, opts...)
}

type otelErrorHandler struct {
	logger logging.Logger
}

func (o *otelErrorHandler) Handle(e error) {
	if e == nil {
		return
	}

	o.logger.Error(e.Error())
}
