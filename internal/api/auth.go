package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/recoship/ranking/internal/auth"
	"github.com/recoship/ranking/internal/config"
)

type ctxKeyClaims struct{}

// Auth builds a bearer-token middleware. When cfg.AuthMode is "none" every
// request passes through untouched except for routes under requireAdminPrefix,
// which always demand a valid admin-role JWT regardless of auth mode.
func Auth(mgr *auth.JWTManager, cfg config.SecurityConfig, requireAdminPrefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := NewResponseWriter(w, r)
			isAdminRoute := requireAdminPrefix != "" && strings.HasPrefix(r.URL.Path, requireAdminPrefix)

			if cfg.AuthMode == "none" && !isAdminRoute {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				rw.Unauthorized("missing bearer token")
				return
			}
			claims, err := mgr.ValidateToken(token)
			if err != nil {
				rw.Unauthorized("invalid or expired token")
				return
			}
			if isAdminRoute && claims.Role != "admin" {
				rw.Forbidden("admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

// ClaimsFromContext returns the JWT claims attached by Auth, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims{}).(*auth.Claims)
	return claims, ok
}
