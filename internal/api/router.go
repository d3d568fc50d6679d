// Package api assembles the HTTP surface: request id and correlation
// propagation, CORS, rate limiting, JWT auth, and the route tree for the
// recommendation, sentiment, courier-ranking, task, and admin endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recoship/ranking/internal/auth"
	"github.com/recoship/ranking/internal/config"
	appmiddleware "github.com/recoship/ranking/internal/middleware"
	"github.com/recoship/ranking/internal/orchestrator"
	"github.com/recoship/ranking/internal/reqctx"
)

// Deps collects every collaborator the router needs to build handlers.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	JWTManager   *auth.JWTManager
	Security     config.SecurityConfig
	Performance  *appmiddleware.PerformanceMonitor
}

// NewRouter assembles the full chi.Router for the service.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	mw := MiddlewareConfigFromSecurity(deps.Security)

	r.Use(chimiddleware.RealIP)
	r.Use(Recoverer)
	r.Use(requestContextMiddleware)
	r.Use(mw.CORS())
	r.Use(mw.RateLimit())
	r.Use(processTime)
	r.Use(recordMetrics)
	r.Use(gzipCompress)
	if deps.Performance != nil {
		r.Use(deps.Performance.Middleware)
	}

	authMw := Auth(deps.JWTManager, deps.Security, "/api/v1/admin")

	rec := &recommendHandlers{orch: deps.Orchestrator}
	sent := &sentimentHandlers{orch: deps.Orchestrator}
	tasks := &taskHandlers{orch: deps.Orchestrator}
	couriers := &courierHandlers{orch: deps.Orchestrator}
	admin := &adminHandlers{orch: deps.Orchestrator, jwtMgr: deps.JWTManager}
	health := &healthHandlers{orch: deps.Orchestrator}
	products := &productHandlers{orch: deps.Orchestrator}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", health.handleHealth)
			r.Get("/live", health.handleLive)
			r.Get("/ready", health.handleReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Route("/recommendations", func(r chi.Router) {
				r.Post("/", rec.handleRecommend)
				r.Post("/direct", rec.handleRecommendDirect)
				r.Post("/async", rec.handleRecommendAsync)
			})

			r.Route("/sentiment", func(r chi.Router) {
				r.Post("/analyze", sent.handleAnalyze)
				r.Post("/analyze/async", sent.handleAnalyzeAsync)
				r.Post("/analyze/batch", sent.handleAnalyzeBatch)
			})

			r.Route("/tasks/{id}", func(r chi.Router) {
				r.Get("/", tasks.handleGetTask)
				r.Delete("/", tasks.handleCancelTask)
				r.Get("/result", tasks.handleGetTaskResult)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/suggest", products.handleSuggest)
			})

			r.Route("/livreurs", func(r chi.Router) {
				r.Post("/rank", couriers.handleRankCouriers)
				r.Get("/health", couriers.handleCourierHealth)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Post("/vectorize", admin.handleVectorize)
				r.Post("/cache/invalidate", admin.handleCacheInvalidate)
				r.Post("/collections/{type}", admin.handleRecreateCollection)
				r.Post("/token", admin.handleIssueToken)
			})
		})
	})

	return r
}

// requestContextMiddleware extracts correlation/user/session identity from
// inbound headers (or mints a fresh correlation id) and attaches the result
// to the request context via reqctx, so every downstream handler and any
// task it submits to the task runner carries the same identity.
func requestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		userID := r.Header.Get("X-User-ID")
		sessionID := r.Header.Get("X-Session-ID")

		ctx := reqctx.NewIncoming(r.Context(), correlationID, userID, sessionID)
		rc := reqctx.From(ctx)
		w.Header().Set("X-Correlation-ID", rc.CorrelationID)
		w.Header().Set("X-Request-ID", rc.RequestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
