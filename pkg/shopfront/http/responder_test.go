package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront.dev/pkg/shopfront/http/response"
)

func TestResponder_Respond(t *testing.T) {
	tests := []struct {
		desc       string
		method     string
		data       any
		err        error
		statusCode int
		body       string
	}{
		{"get with data", http.MethodGet, map[string]string{"message": "hi"}, nil, http.StatusOK, `{"data":{"message":"hi"}}`},
		{"post created", http.MethodPost, "x", nil, http.StatusCreated, `{"data":"x"}`},
		{"raw body", http.MethodGet, response.Raw{Data: map[string]bool{"ok": true}}, nil, http.StatusOK, `{"ok":true}`},
		{"raw body with status error", http.MethodGet, response.Raw{Data: map[string]bool{"ok": false}},
			ErrorServiceUnavailable{}, http.StatusServiceUnavailable, `{"ok":false}`},
	}

	for i, tc := range tests {
		rec := httptest.NewRecorder()

		NewResponder(rec, tc.method).Respond(tc.data, tc.err)

		assert.Equal(t, tc.statusCode, rec.Code, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, tc.body, strings.TrimSpace(rec.Body.String()), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestResponder_ErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	NewResponder(rec, http.MethodGet).Respond(nil, ErrorPanicRecovery{})

	var body struct {
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Internal Server Error", body.Errors[0].Reason)
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, getStatusCode(http.MethodDelete, nil))
	assert.Equal(t, http.StatusInternalServerError, getStatusCode(http.MethodGet, errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, getStatusCode(http.MethodGet, ErrorRouteNotFound{}))
	assert.Equal(t, "Service Unavailable", ErrorServiceUnavailable{}.Error())
	assert.Equal(t, "stores down", ErrorServiceUnavailable{Reason: "stores down"}.Error())
}
