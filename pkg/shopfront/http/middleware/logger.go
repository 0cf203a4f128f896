// Package middleware has the request wrappers every route goes through: tracing, logging with panic
// recovery, and response metrics.
package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// StatusResponseWriter records the status code written by the inner handler.
type StatusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *StatusResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}

	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.ResponseWriter.Write(b)
}

func (w *StatusResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

// RequestLog represents a log entry for HTTP requests.
type RequestLog struct {
	TraceID      string `json:"trace_id,omitempty"`
	SpanID       string `json:"span_id,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	ResponseTime int64  `json:"response_time,omitempty"`
	Method       string `json:"method,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
	IP           string `json:"ip,omitempty"`
	URI          string `json:"uri,omitempty"`
	Response     int    `json:"response,omitempty"`
}

func (rl *RequestLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%s \u001B[38;5;%dm%-6d\u001B[0m "+
		"%8d\u001B[38;5;8mµs\u001B[0m %s %s \n", rl.TraceID, colorForStatusCode(rl.Response), rl.Response, rl.ResponseTime, rl.Method, rl.URI)
}

func colorForStatusCode(status int) int {
	const (
		blue   = 34
		red    = 202
		yellow = 220
	)

	switch {
	case status >= 200 && status < 300:
		return blue
	case status >= 400 && status < 500:
		return yellow
	case status >= 500 && status < 600:
		return red
	}

	return 0
}

type logger interface {
	Log(args ...any)
	Error(args ...any)
}

// Logging logs one RequestLog per request and turns a panicking handler into a 500.
func Logging(logger logger) func(inner http.Handler) http.Handler {
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &StatusResponseWriter{ResponseWriter: w}
			spanCtx := trace.SpanFromContext(r.Context()).SpanContext()
			traceID := spanCtx.TraceID().String()

			srw.Header().Set("X-Correlation-ID", traceID)

			defer func() {
				l := &RequestLog{
					TraceID:      traceID,
					SpanID:       spanCtx.SpanID().String(),
					StartTime:    start.Format(time.RFC3339Nano),
					ResponseTime: time.Since(start).Microseconds(),
					Method:       r.Method,
					UserAgent:    r.UserAgent(),
					IP:           getIPAddress(r),
					URI:          r.RequestURI,
					Response:     srw.Status(),
				}

				if srw.Status() >= http.StatusInternalServerError {
					logger.Error(l)
				} else {
					logger.Log(l)
				}
			}()

			defer func() {
				panicRecovery(recover(), srw, logger)
			}()

			inner.ServeHTTP(srw, r)
		})
	}
}

func getIPAddress(r *http.Request) string {
	ips := strings.Split(r.Header.Get("X-Forwarded-For"), ",")

	// the left-most entry is the originating client
	ipAddress := ips[0]

	if ipAddress == "" {
		ipAddress = r.RemoteAddr
	}

	return strings.TrimSpace(ipAddress)
}

type panicLog struct {
	Error      string `json:"error,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

type panicResponse struct {
	Errors []panicReason `json:"errors"`
}

type panicReason struct {
	Reason   string    `json:"reason"`
	DateTime time.Time `json:"datetime"`
}

func panicRecovery(re any, w http.ResponseWriter, logger logger) {
	if re == nil {
		return
	}

	var e string

	switch t := re.(type) {
	case string:
		e = t
	case error:
		e = t.Error()
	default:
		e = "Unknown panic type"
	}

	logger.Error(panicLog{
		Error:      e,
		StackTrace: string(debug.Stack()),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	_ = json.NewEncoder(w).Encode(panicResponse{Errors: []panicReason{{
		Reason:   http.StatusText(http.StatusInternalServerError),
		DateTime: time.Now(),
	}}})
}
