package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/gridview/internal/metrics"
)

// Metrics records request counts and latency per chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := wrap(w)

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		metrics.RequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
