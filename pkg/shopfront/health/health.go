// Package health reports whether the relational store and the cache store can be reached.
//
// Both stores are probed on every call, concurrently and each under its own time bound. A probe that
// errors, panics, times out or has no handle counts as unreachable; Check itself never fails.
package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"shopfront.dev/pkg/shopfront/logging"
)

// Status is the overall outcome of a Check.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Report is built fresh for every Check. Status is StatusOK exactly when both stores are reachable.
type Report struct {
	Status   Status `json:"status"`
	Postgres bool   `json:"postgres"`
	Redis    bool   `json:"redis"`
}

func (r Report) Healthy() bool {
	return r.Status == StatusOK
}

// RelationalStore is satisfied by *sql.DB and by the datasource/sql wrapper.
type RelationalStore interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CacheStore is satisfied by *redis.Client and by the datasource/redis wrapper.
type CacheStore interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Logger interface {
	Errorf(format string, args ...any)
}

type Metrics interface {
	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

const (
	DefaultTimeout = 3 * time.Second

	storePostgres = "postgres"
	storeRedis    = "redis"

	probeQuery = "SELECT 1"
)

var (
	errNoHandle        = errors.New("store is not configured")
	errUnexpectedValue = errors.New("unexpected probe result")
	errProbePanic      = errors.New("probe panicked")
)

type Checker struct {
	db    RelationalStore
	cache CacheStore

	timeout       time.Duration
	failureStatus int

	logger  Logger
	metrics Metrics
	tracer  trace.Tracer
}

type Option func(*Checker)

// WithTimeout bounds each probe. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

// WithFailureStatus sets the HTTP status served when a store is unreachable. Only 200 and 503 are accepted.
func WithFailureStatus(code int) Option {
	return func(c *Checker) {
		if code == http.StatusOK || code == http.StatusServiceUnavailable {
			c.failureStatus = code
		}
	}
}

// New returns a Checker for db and cache. Either may be nil, in which case that store is reported unreachable.
func New(db RelationalStore, cache CacheStore, opts ...Option) *Checker {
	c := &Checker{
		db:            db,
		cache:         cache,
		timeout:       DefaultTimeout,
		failureStatus: http.StatusOK,
		logger:        logging.NewLogger(logging.INFO),
		tracer:        otel.GetTracerProvider().Tracer("shopfront-health"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check probes both stores and waits for both answers.
func (c *Checker) Check(ctx context.Context) Report {
	var (
		g             errgroup.Group
		pgUp, cacheUp bool
	)

	// the probes never return errors; the group only joins them.
	g.Go(func() error {
		pgUp = c.probe(ctx, storePostgres, c.pingPostgres)

		return nil
	})

	g.Go(func() error {
		cacheUp = c.probe(ctx, storeRedis, c.pingRedis)

		return nil
	})

	_ = g.Wait()

	r := Report{Status: StatusError, Postgres: pgUp, Redis: cacheUp}
	if pgUp && cacheUp {
		r.Status = StatusOK
	}

	return r
}

func (c *Checker) pingPostgres(ctx context.Context) error {
	if c.db == nil {
		return errNoHandle
	}

	var one int

	if err := c.db.QueryRowContext(ctx, probeQuery).Scan(&one); err != nil {
		return err
	}

	if one != 1 {
		return fmt.Errorf("%w: %s returned %d", errUnexpectedValue, probeQuery, one)
	}

	return nil
}

func (c *Checker) pingRedis(ctx context.Context) error {
	if c.cache == nil {
		return errNoHandle
	}

	return c.cache.Ping(ctx).Err()
}

// probe runs fn in its own goroutine so that a store ignoring ctx still cannot hold the check past the timeout.
func (c *Checker) probe(ctx context.Context, store string, fn func(context.Context) error) bool {
	start := time.Now()

	spanCtx, span := c.tracer.Start(ctx, "health-check "+store, trace.WithAttributes(attribute.String("store", store)))
	defer span.End()

	probeCtx, cancel := context.WithTimeout(spanCtx, c.timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", errProbePanic, r)
			}
		}()

		done <- fn(probeCtx)
	}()

	var err error

	select {
	case err = <-done:
	case <-probeCtx.Done():
		err = probeCtx.Err()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		c.logger.Errorf("health check for %s failed: %v", store, err)
	}

	c.record(ctx, store, start, err == nil)

	return err == nil
}

func (c *Checker) record(ctx context.Context, store string, start time.Time, up bool) {
	if c.metrics == nil {
		return
	}

	result := "up"
	if !up {
		result = "down"
	}

	ctx = context.WithoutCancel(ctx)

	c.metrics.IncrementCounter(ctx, "app_health_probe_total", "store", store, "result", result)
	c.metrics.RecordHistogram(ctx, "app_health_probe_duration", float64(time.Since(start).Microseconds())/1e3, "store", store)
}
