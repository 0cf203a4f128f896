package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"shopfront.dev/pkg/shopfront/http/response"
)

func NewResponder(w http.ResponseWriter, method string) *Responder {
	return &Responder{w: w, method: method}
}

// Responder writes JSON responses and derives the status code from the returned error.
type Responder struct {
	w      http.ResponseWriter
	method string
}

type envelope struct {
	Data   any           `json:"data,omitempty"`
	Errors []errResponse `json:"errors,omitempty"`
}

type errResponse struct {
	Reason   string    `json:"reason"`
	DateTime time.Time `json:"datetime"`
}

type statusCodeResponder interface {
	StatusCode() int
	Error() string
}

// Respond writes data and err. A response.Raw payload is written without the envelope, so err then only
// selects the status code.
func (r Responder) Respond(data any, err error) {
	statusCode := getStatusCode(r.method, err)

	var resp any

	switch v := data.(type) {
	case response.Raw:
		resp = v.Data
	default:
		resp = envelope{Data: v, Errors: getErrResponse(err)}
	}

	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(statusCode)

	_ = json.NewEncoder(r.w).Encode(resp)
}

func getStatusCode(method string, err error) int {
	if err == nil {
		switch method {
		case http.MethodPost:
			return http.StatusCreated
		case http.MethodDelete:
			return http.StatusNoContent
		default:
			return http.StatusOK
		}
	}

	var e statusCodeResponder
	if errors.As(err, &e) && e.StatusCode() != 0 {
		return e.StatusCode()
	}

	return http.StatusInternalServerError
}

func getErrResponse(err error) []errResponse {
	if err == nil {
		return nil
	}

	return []errResponse{{Reason: err.Error(), DateTime: time.Now()}}
}
