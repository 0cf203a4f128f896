package shopfront

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"shopfront.dev/pkg/shopfront/container"
	shophttp "shopfront.dev/pkg/shopfront/http"
	"shopfront.dev/pkg/shopfront/http/middleware"
)

type httpServer struct {
	router *shophttp.Router
	srv    *http.Server
}

// newHTTPServer builds the server up front so that a shutdown arriving before run still stops it.
func newHTTPServer(c *container.Container, host string, port int) *httpServer {
	r := shophttp.NewRouter()

	r.UseMiddleware(
		middleware.Tracer,
		middleware.Logging(c.Logger),
		middleware.Metrics(c.Metrics()),
	)

	return &httpServer{
		router: r,
		srv: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *httpServer) run(c *container.Container) {
	c.Logf("Starting server on %s", s.srv.Addr)
	c.Log(s.router.Table())

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.Errorf("error while listening to http server, err: %v", err)
	}
}

func (s *httpServer) shutdown(ctx context.Context) error {
	return ShutdownWithContext(ctx, func(ctx context.Context) error {
		return s.srv.Shutdown(ctx)
	}, s.srv.Close)
}
