// Package http holds the router, the JSON responder and the error types handlers return to pick a status code.
package http

import (
	"net/http"
)

// ErrorRouteNotFound is served for any request no route matched.
type ErrorRouteNotFound struct{}

func (ErrorRouteNotFound) Error() string {
	return "route not registered"
}

func (ErrorRouteNotFound) StatusCode() int {
	return http.StatusNotFound
}

// ErrorPanicRecovery represents an error for request which panicked.
type ErrorPanicRecovery struct{}

func (ErrorPanicRecovery) Error() string {
	return http.StatusText(http.StatusInternalServerError)
}

func (ErrorPanicRecovery) StatusCode() int {
	return http.StatusInternalServerError
}

// ErrorServiceUnavailable marks a response whose dependencies are down.
type ErrorServiceUnavailable struct {
	Reason string
}

func (e ErrorServiceUnavailable) Error() string {
	if e.Reason == "" {
		return http.StatusText(http.StatusServiceUnavailable)
	}

	return e.Reason
}

func (ErrorServiceUnavailable) StatusCode() int {
	return http.StatusServiceUnavailable
}
