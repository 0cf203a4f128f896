package health

import (
	"net/http"

	shophttp "shopfront.dev/pkg/shopfront/http"
	"shopfront.dev/pkg/shopfront/http/response"
)

// ServeHTTP writes the bare report. The status code is 200 unless the checker was built with
// WithFailureStatus(503) and a store is unreachable; the body is the same either way.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := c.Check(r.Context())

	var err error
	if !report.Healthy() && c.failureStatus == http.StatusServiceUnavailable {
		err = shophttp.ErrorServiceUnavailable{Reason: "one or more stores are unreachable"}
	}

	shophttp.NewResponder(w, r.Method).Respond(response.Raw{Data: report}, err)
}
