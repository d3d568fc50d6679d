/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. These
components work alongside the authentication middleware to create a complete
middleware stack for HTTP request processing.

Key Components:

  - Compression: Gzip compression when the client accepts gzip
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The http.HandlerFunc middleware in this package nest directly:

	http.HandleFunc("/api/v1/endpoint",
	    middleware.PrometheusMetrics(   // Layer 1: Metrics
	        middleware.Compression(     // Layer 2: Gzip
	            middleware.RequestID(   // Layer 3: Request tracking
	                handler,            // Layer 4: Business logic
	            ),
	        ),
	    ),
	)

internal/api adapts PrometheusMetrics and Compression to chi's
func(http.Handler) http.Handler middleware signature.

Usage Example - Compression:

	import "github.com/recoship/ranking/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Responses of any size are compressed
	// Accept-Encoding: gzip header is required

Usage Example - Performance Monitoring:

	// Create performance monitor keeping the 1000 most recent samples
	perfMon := middleware.NewPerformanceMonitor(1000)

	// Wrap handler
	http.Handle("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get performance statistics (one entry per method and path)
	for _, s := range perfMon.GetStats() {
	    fmt.Printf("%s p50: %dms, p95: %dms, p99: %dms\n",
	        s.Path, s.P50Duration, s.P95Duration, s.P99Duration)
	}

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)
  - Performance monitor: Mutex-guarded slice of the most recent latency samples

Compression Details:

The compression middleware:
  - Compresses every response when gzip is accepted (no size threshold)
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Does not check the response's MIME type
  - Skips WebSocket upgrade requests
  - Automatically sets Content-Encoding header
  - Does not implement http.Flusher, so streamed output is not flushed early

Performance Monitor:

The performance monitor tracks:
  - Request count and status code per request
  - Latency percentiles (p50, p95, p99)
  - Rolling window of the most recent requests (size set by NewPerformanceMonitor)
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/auth: Authentication middleware
  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
