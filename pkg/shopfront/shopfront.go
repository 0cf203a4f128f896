// Package shopfront wires configuration, stores and routes into a runnable service.
package shopfront

import (
	"net/http"
	"strings"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"shopfront.dev/pkg/shopfront/config"
	"shopfront.dev/pkg/shopfront/container"
	shophttp "shopfront.dev/pkg/shopfront/http"
	"shopfront.dev/pkg/shopfront/http/response"
	"shopfront.dev/pkg/shopfront/logging"
)

const (
	configFolder     = "./configs"
	healthPath       = "/api/v1/health"
	shutDownTimeout  = 30 * time.Second
	defaultIndexName = "shopfront"
)

// App is the running service: one HTTP server for the API and one for metrics.
type App struct {
	Config config.Config

	env       *config.Env
	container *container.Container

	httpServer     *httpServer
	metricServer   *metricServer
	tracerProvider *sdktrace.TracerProvider
}

// New reads ./configs and the process environment, connects to the stores and registers the routes.
// An invalid environment is fatal.
func New() *App {
	logger := logging.NewLogger(logging.INFO)
	cfg := config.NewEnvFile(configFolder, logger)

	logger.ChangeLevel(logging.GetLevelFromString(cfg.Get("LOG_LEVEL")))

	env, err := config.LoadEnv(cfg)
	if err != nil {
		logger.Fatalf("could not start: %v", err)

		return nil
	}

	return newApp(cfg, env, container.NewContainer(env, logger))
}

func newApp(cfg config.Config, env *config.Env, c *container.Container) *App {
	a := &App{
		Config:    cfg,
		env:       env,
		container: c,
	}

	a.initTracer()

	a.httpServer = newHTTPServer(c, env.Host, env.Port)

	if env.MetricsPort != 0 {
		a.metricServer = newMetricServer(c, env.Host, env.MetricsPort)
	}

	a.httpServer.router.Add(http.MethodGet, "/", http.HandlerFunc(a.index))
	a.httpServer.router.Add(http.MethodGet, healthPath, c.Health)
	a.httpServer.router.NotFound(http.HandlerFunc(notFound))

	return a
}

func (a *App) Logger() logging.Logger {
	return a.container.Logger
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	name := a.container.GetAppName()
	if name == "" {
		name = defaultIndexName
	}

	shophttp.NewResponder(w, r.Method).Respond(response.Raw{Data: map[string]string{
		"message": "Hello from " + strings.TrimSpace(name) + "!",
	}}, nil)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	shophttp.NewResponder(w, r.Method).Respond(nil, shophttp.ErrorRouteNotFound{})
}
