/*
Package container builds the process-wide dependencies once and hands them to the app: the logger, the
metrics manager, the PostgreSQL pool, the Redis client and the health checker that probes both stores.
*/
package container

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"shopfront.dev/pkg/shopfront/config"
	"shopfront.dev/pkg/shopfront/datasource/redis"
	"shopfront.dev/pkg/shopfront/datasource/sql"
	"shopfront.dev/pkg/shopfront/health"
	"shopfront.dev/pkg/shopfront/logging"
	"shopfront.dev/pkg/shopfront/metrics"
	"shopfront.dev/pkg/shopfront/version"
)

// Container is a collection of all common application level concerns.
type Container struct {
	logging.Logger

	appName    string
	appVersion string

	metricsManager metrics.Manager
	registry       *prometheus.Registry

	SQL    *sql.DB
	Redis  *redis.Redis
	Health *health.Checker
}

// NewContainer connects to both stores described by env. Unreachable stores are logged and left to
// reconnect; the health checker reports them until they do.
func NewContainer(env *config.Env, logger logging.Logger) *Container {
	c := &Container{
		Logger:     logger,
		appName:    env.AppName,
		appVersion: env.AppVersion,
	}

	c.Logger.Debug("Container is being created")

	meter, registry := metrics.Prometheus(c.appName, c.appVersion)
	c.metricsManager = metrics.NewMetricsManager(meter, c.Logger)
	c.registry = registry

	c.registerFrameworkMetrics()

	// one per running instance
	c.metricsManager.SetGauge("app_info", 1,
		"app_name", c.appName, "app_version", c.appVersion, "framework_version", version.Framework)

	c.SQL = sql.NewSQL(&sql.DBConfig{
		HostName: env.PostgresHost,
		User:     env.PostgresUser,
		Password: env.PostgresPassword,
		Port:     env.PostgresPort,
		Database: env.PostgresDB,
		SSLMode:  env.PostgresSSLMode,
	}, c.Logger, c.metricsManager)

	c.Redis = redis.NewClient(&redis.Config{
		HostName: env.RedisHost,
		Port:     env.RedisPort,
		Password: env.RedisPassword,
		DB:       env.RedisDB,
	}, c.Logger, c.metricsManager)

	c.Health = health.New(c.relationalStore(), c.cacheStore(),
		health.WithTimeout(env.HealthProbeTimeout),
		health.WithFailureStatus(env.HealthFailureStatus),
		health.WithLogger(c.Logger),
		health.WithMetrics(c.metricsManager),
	)

	return c
}

// relationalStore keeps a nil *sql.DB from turning into a non-nil interface.
func (c *Container) relationalStore() health.RelationalStore {
	if c.SQL == nil {
		return nil
	}

	return c.SQL
}

func (c *Container) cacheStore() health.CacheStore {
	if c.Redis == nil {
		return nil
	}

	return c.Redis
}

func (c *Container) registerFrameworkMetrics() {
	// system metrics, refreshed on every scrape
	c.metricsManager.NewGauge("app_info", "Info for app_name, app_version and framework_version.")
	c.metricsManager.NewGauge("app_go_routines", "Number of Go routines running.")
	c.metricsManager.NewGauge("app_sys_memory_alloc", "Number of bytes allocated for heap objects.")
	c.metricsManager.NewGauge("app_sys_total_alloc", "Number of cumulative bytes allocated for heap objects.")
	c.metricsManager.NewGauge("app_go_numGC", "Number of completed Garbage Collector cycles.")
	c.metricsManager.NewGauge("app_go_sys", "Number of total bytes of memory.")

	httpBuckets := []float64{.001, .003, .005, .01, .02, .03, .05, .1, .2, .3, .5, .75, 1, 2, 3, 5, 10, 30}
	c.metricsManager.NewHistogram("app_http_response", "Response time of HTTP requests in seconds.", httpBuckets...)

	c.metricsManager.NewCounter("app_health_probe_total", "Number of store probes run by the health check, by outcome.")
	c.metricsManager.NewHistogram("app_health_probe_duration", "Duration of store probes in milliseconds.",
		.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 3000)
}

func (c *Container) GetAppName() string {
	return c.appName
}

func (c *Container) GetAppVersion() string {
	return c.appVersion
}

func (c *Container) Metrics() metrics.Manager {
	return c.metricsManager
}

// MetricsHandler serves everything recorded through Metrics.
func (c *Container) MetricsHandler() http.Handler {
	return metrics.GetHandler(c.metricsManager, c.registry)
}

func (c *Container) Close() error {
	var err error

	if c.SQL != nil {
		err = errors.Join(err, c.SQL.Close())
	}

	if c.Redis != nil {
		err = errors.Join(err, c.Redis.Close())
	}

	return err
}
