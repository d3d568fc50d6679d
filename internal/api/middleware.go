package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/recoship/ranking/internal/config"
	appmiddleware "github.com/recoship/ranking/internal/middleware"
)

// MiddlewareConfig holds configuration for the Chi middleware factories
// shared across every route group.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RateLimitDisabled  bool
}

// MiddlewareConfigFromSecurity adapts the application's SecurityConfig to
// the Chi middleware factories.
func MiddlewareConfigFromSecurity(sec config.SecurityConfig) *MiddlewareConfig {
	return &MiddlewareConfig{
		CORSAllowedOrigins: sec.CORSOrigins,
		RateLimitRequests:  sec.RateLimitReqs,
		RateLimitWindow:    sec.RateLimitWindow,
		RateLimitDisabled:  sec.RateLimitDisabled,
	}
}

// CORS builds a Chi-compatible CORS middleware using go-chi/cors.
func (c *MiddlewareConfig) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Correlation-ID", "X-User-ID", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "X-Process-Time-Ms"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// RateLimit builds a Chi-compatible rate limiting middleware using
// go-chi/httprate, keyed by client IP.
func (c *MiddlewareConfig) RateLimit() func(http.Handler) http.Handler {
	if c.RateLimitDisabled || c.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := c.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(c.RateLimitRequests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
}

// Recoverer is chi's panic-recovery middleware, reused as-is.
func Recoverer(next http.Handler) http.Handler {
	return chimiddleware.Recoverer(next)
}

// processTime stamps the response with X-Process-Time-Ms, measured from the
// moment this middleware's handler starts to the moment it returns.
func processTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		w.Header().Set("X-Process-Time-Ms", formatDurationMs(time.Since(start)))
	})
}

// recordMetrics adapts appmiddleware.PrometheusMetrics (an http.HandlerFunc
// wrapper) to chi's func(http.Handler) http.Handler middleware signature.
func recordMetrics(next http.Handler) http.Handler {
	return appmiddleware.PrometheusMetrics(next.ServeHTTP)
}

// gzipCompress adapts appmiddleware.Compression to chi's middleware
// signature.
func gzipCompress(next http.Handler) http.Handler {
	return appmiddleware.Compression(next.ServeHTTP)
}

func formatDurationMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		ms = 1
	}
	return itoa(ms)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
