package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/platform/metrics"
)

// Metrics labels requests by chi route pattern so ids do not explode the
// label set.
func Metrics(reg *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if reg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			reg.ObserveRequest(route, r.Method, rec.status, time.Since(start))
		})
	}
}
