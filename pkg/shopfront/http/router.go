package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Router is a mux.Router that traces every route and remembers what was registered.
type Router struct {
	mux.Router
	RegisteredRoutes *[]Route
}

// Route is one registered method and path pair.
type Route struct {
	Method string
	Path   string
}

type Middleware func(handler http.Handler) http.Handler

func NewRouter() *Router {
	muxRouter := mux.NewRouter().StrictSlash(false)
	routes := make([]Route, 0)

	return &Router{
		Router:           *muxRouter,
		RegisteredRoutes: &routes,
	}
}

// Add registers handler for method and pattern, wrapped in an otelhttp span named after the route.
func (rou *Router) Add(method, pattern string, handler http.Handler) {
	h := otelhttp.NewHandler(handler, "shopfront-router "+method+" "+pattern)
	rou.Router.NewRoute().Methods(method).Path(pattern).Handler(h)

	*rou.RegisteredRoutes = append(*rou.RegisteredRoutes, Route{Method: method, Path: pattern})
}

func (rou *Router) UseMiddleware(mws ...Middleware) {
	middlewares := make([]mux.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		middlewares = append(middlewares, mux.MiddlewareFunc(m))
	}

	rou.Use(middlewares...)
}

// NotFound answers every unmatched request with handler.
func (rou *Router) NotFound(handler http.Handler) {
	rou.Router.NotFoundHandler = handler
}

// Table returns the registered routes in a form the logger can pretty print.
func (rou *Router) Table() *RouteTable {
	routes := make([]Route, len(*rou.RegisteredRoutes))
	copy(routes, *rou.RegisteredRoutes)

	return &RouteTable{Routes: routes}
}
