package shopfront

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Run serves until SIGINT or SIGTERM, then shuts down within SHUTDOWN_GRACE_PERIOD.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.run(ctx)
}

func (a *App) run(ctx context.Context) {
	timeout, err := getShutdownTimeoutFromConfig(a.Config)
	if err != nil {
		a.container.Errorf("invalid SHUTDOWN_GRACE_PERIOD, using %v: %v", timeout, err)
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer done()

		_ = a.Shutdown(shutdownCtx)
	}()

	wg := sync.WaitGroup{}

	// metrics first, so that the first API request is already observed
	if a.metricServer != nil {
		wg.Add(1)

		go func(m *metricServer) {
			defer wg.Done()
			m.run(a.container)
		}(a.metricServer)
	}

	wg.Add(1)

	go func(s *httpServer) {
		defer wg.Done()
		s.run(a.container)
	}(a.httpServer)

	wg.Wait()
}
