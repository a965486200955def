package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/auth"
	"github.com/phu68/Cong-cu-tinh-luong/internal/transport/http/api"
)

// Auth attaches the bearer token's principal to the request context. Missing
// or invalid tokens pass through unauthenticated; RequireAuth rejects them.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPrincipal, claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if scope != "" && !principal.HasScope(scope) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient scope", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(ctxKeyPrincipal).(auth.Principal)
	return principal, ok
}
