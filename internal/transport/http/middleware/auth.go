package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/requestctx"
	"hrconsole/internal/transport/http/api"
)

// Auth turns a valid bearer token into an explicit session on the request
// context. Requests without one pass through unauthenticated.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

			session, err := auth.SessionFromToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithSession(r.Context(), session)))
		})
	}
}

func GetSession(ctx context.Context) (auth.Session, bool) {
	return requestctx.GetSession(ctx)
}

func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
