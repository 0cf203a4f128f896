package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"shopfront.dev/pkg/shopfront/version"
)

// Tracer starts a server span for every request, continuing the caller's trace when it sent one.
func Tracer(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := otel.GetTracerProvider().Tracer("shopfront", trace.WithInstrumentationVersion(version.Framework)).
			Start(ctx, fmt.Sprintf("shopfront-middleware %s %s", r.Method, r.URL.Path), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		inner.ServeHTTP(w, r.WithContext(ctx))
	})
}
