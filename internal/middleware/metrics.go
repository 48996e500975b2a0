package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"adstudio/internal/metrics"
)

// Metrics counts requests by chi route pattern so path parameters do not
// explode label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrapResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
	})
}
