package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type metrics interface {
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// Metrics records app_http_response, in seconds, labelled with the route template rather than the raw path.
func Metrics(metrics metrics) func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &StatusResponseWriter{ResponseWriter: w}

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			if path != "/" {
				path = strings.TrimSuffix(path, "/")
			}

			// deferred so that the status code is populated
			defer func() {
				metrics.RecordHistogram(context.Background(), "app_http_response", time.Since(start).Seconds(),
					"path", path, "method", r.Method, "status", strconv.Itoa(srw.Status()))
			}()

			inner.ServeHTTP(srw, r)
		})
	}
}
