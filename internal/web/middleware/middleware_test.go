package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		key    string
		status int
	}{
		{"disabled", config.SecurityConfig{}, "", http.StatusNoContent},
		{"missing key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "", http.StatusUnauthorized},
		{"wrong key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "k2", http.StatusForbidden},
		{"second key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, "k2", http.StatusNoContent},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "k1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tickets", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()

			APIKeyAuth(tt.cfg)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	handler := func(got *string) http.Handler {
		return TrustedRealIP([]string{"10.0.0.0/8", "127.0.0.1", "not-a-cidr"})(
			http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { *got = r.RemoteAddr }))
	}

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"trusted real ip", "10.1.2.3:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"trusted forwarded for", "127.0.0.1:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"untrusted proxy", "192.0.2.1:5000", map[string]string{"X-Real-IP": "203.0.113.9"}, "192.0.2.1:5000"},
		{"invalid header", "10.1.2.3:5000", map[string]string{"X-Real-IP": "nope"}, "10.1.2.3:5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			handler(&got).ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "buckets are per ip")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "one token per second refills")

	now = now.Add(time.Hour)
	assert.Equal(t, 2, rl.Sweep(time.Minute))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	h := rl.Middleware(ok)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "RATE001")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics, Logger)
	r.Get("/views/{view}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	counter := metrics.RequestTotal.WithLabelValues(http.MethodGet, "/views/{view}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/views/people", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestResponseWriterCapturesBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := wrap(rec)

	_, err := ww.Write([]byte("hello"))
	require.NoError(t, err)
	ww.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, ww.status, "first write fixes the status")
	assert.Equal(t, 5, ww.bytes)
	assert.Same(t, ww, wrap(ww))
}
