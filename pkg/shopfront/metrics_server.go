package shopfront

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"shopfront.dev/pkg/shopfront/container"
)

type metricServer struct {
	srv *http.Server
}

func newMetricServer(c *container.Container, host string, port int) *metricServer {
	return &metricServer{srv: &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           c.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func (m *metricServer) run(c *container.Container) {
	c.Logf("Starting metrics server on %s", m.srv.Addr)

	if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.Errorf("error while listening to metrics server, err: %v", err)
	}
}

func (m *metricServer) shutdown(ctx context.Context) error {
	return ShutdownWithContext(ctx, func(ctx context.Context) error {
		return m.srv.Shutdown(ctx)
	}, nil)
}
