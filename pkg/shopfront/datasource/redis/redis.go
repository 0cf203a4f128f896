// Package redis wraps a go-redis client with command logging, latency metrics and tracing.
package redis

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"shopfront.dev/pkg/shopfront/datasource"
)

const redisPingTimeout = 5 * time.Second

type Metrics interface {
	NewHistogram(name, desc string, buckets ...float64)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// Config has the values needed to reach Redis.
type Config struct {
	HostName string
	Port     int
	Password string
	DB       int
	Options  *redis.Options
}

func (c *Config) address() string {
	return net.JoinHostPort(c.HostName, strconv.Itoa(c.Port))
}

type Redis struct {
	*redis.Client
	logger  datasource.Logger
	config  *Config
	metrics Metrics
}

// NewClient creates the client and checks the connection once. A failed ping is logged, not returned: the
// client redials on the next command and the health check reports the store as unreachable until then.
func NewClient(cfg *Config, logger datasource.Logger, metrics Metrics) *Redis {
	metrics.NewHistogram("app_redis_stats", "Response time of Redis commands in milliseconds.",
		.05, .075, .1, .125, .15, .2, .3, .5, .75, 1, 1.25, 1.5, 2, 2.5, 3)

	if cfg.Options == nil {
		cfg.Options = new(redis.Options)
	}

	if cfg.Options.Addr == "" {
		cfg.Options.Addr = cfg.address()
	}

	if cfg.Options.Password == "" {
		cfg.Options.Password = cfg.Password
	}

	if cfg.Options.DB == 0 {
		cfg.Options.DB = cfg.DB
	}

	rc := redis.NewClient(cfg.Options)
	r := &Redis{Client: rc, logger: logger, config: cfg, metrics: metrics}

	rc.AddHook(r)

	if err := redisotel.InstrumentTracing(rc); err != nil {
		logger.Errorf("could not instrument redis tracing, error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Errorf("could not connect to redis at '%s', error: %v", cfg.Options.Addr, err)
	} else {
		logger.Logf("connected to redis at '%s' on database %d", cfg.Options.Addr, cfg.Options.DB)
	}

	return r
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}

	return r.Client.Close()
}
