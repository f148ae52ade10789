package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

type Route interface {
	http.Handler
	Pattern() string
	Method() string
}

// checkedRoute rejects requests whose method does not match the route's
// declared one before the inner handler runs.
type checkedRoute struct {
	Route
}

func checkRoute(route Route) Route {
	return &checkedRoute{Route: route}
}

func (c *checkedRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != c.Method() {
		http.Error(w, fmt.Sprintf("invalid method, require %s", c.Method()), http.StatusMethodNotAllowed)
		return
	}
	c.Route.ServeHTTP(w, r)
}

func NewRouter(routes []Route, logger *zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	for _, route := range routes {
		logger.Info().Msgf("Registering route: %s", route.Pattern())
		mux.Handle(route.Pattern(), checkRoute(route))
	}
	return mux
}

type basicRoute struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// NewBasicRoute constructs a Route from a bare handler function.
func NewBasicRoute(method string, pattern string, fn http.HandlerFunc) Route {
	return &basicRoute{
		method:  method,
		pattern: pattern,
		handler: fn,
	}
}

func (b *basicRoute) Method() string {
	return b.method
}

func (b *basicRoute) Pattern() string {
	return b.pattern
}

func (b *basicRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.handler(w, r)
}
