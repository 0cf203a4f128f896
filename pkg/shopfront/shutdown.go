package shopfront

import (
	"context"
	"errors"
	"time"

	"shopfront.dev/pkg/shopfront/config"
)

// ShutdownWithContext runs shutdownFunc and waits for it or for ctx, whichever ends first. When ctx wins,
// forceCloseFunc is called if given.
func ShutdownWithContext(ctx context.Context, shutdownFunc func(ctx context.Context) error, forceCloseFunc func() error) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- shutdownFunc(ctx)
	}()

	select {
	case <-ctx.Done():
		err := ctx.Err()

		if forceCloseFunc != nil {
			err = errors.Join(err, forceCloseFunc())
		}

		return err
	case err := <-errCh:
		return err
	}
}

func getShutdownTimeoutFromConfig(cfg config.Config) (time.Duration, error) {
	value := cfg.GetOrDefault("SHUTDOWN_GRACE_PERIOD", "30s")

	timeout, err := time.ParseDuration(value)
	if err != nil {
		return shutDownTimeout, err
	}

	return timeout, nil
}

// Shutdown stops both servers, then releases the stores. The outcome is logged through the container when there is one.
func (a *App) Shutdown(ctx context.Context) error {
	var err error

	err = errors.Join(err, a.httpServer.shutdown(ctx))

	if a.metricServer != nil {
		err = errors.Join(err, a.metricServer.shutdown(ctx))
	}

	if a.tracerProvider != nil {
		err = errors.Join(err, a.tracerProvider.Shutdown(ctx))
	}

	if a.container == nil {
		return err
	}

	err = errors.Join(err, a.container.Close())

	if err != nil {
		a.container.Errorf("error while shutting down: %v", err)

		return err
	}

	a.container.Log("Application shutdown complete")

	return nil
}
