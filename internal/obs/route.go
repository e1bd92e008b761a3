package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UnmatchedRoute is the route label of requests no chi route matched.
const UnmatchedRoute = "unmatched"

// routeOf returns the chi pattern that served r. It is empty before routing
// and for paths chi could not match.
func routeOf(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return ""
	}
	return rc.RoutePattern()
}

// routeLabel is routeOf with a fixed label for unmatched paths, so raw request
// paths never become metric labels.
func routeLabel(r *http.Request) string {
	if route := routeOf(r); route != "" {
		return route
	}
	return UnmatchedRoute
}
