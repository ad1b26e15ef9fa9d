package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/keywarden/keywarden/internal/core/domain"
	"github.com/keywarden/keywarden/internal/core/ports"
	"github.com/keywarden/keywarden/internal/infrastructure/metrics"
)

type contextKey string

const CtxAuth contextKey = "auth"

// AuthContext pulls the verified authorization context out of a request.
func AuthContext(r *http.Request) (*domain.AuthContext, bool) {
	auth, ok := r.Context().Value(CtxAuth).(*domain.AuthContext)
	return auth, ok
}

// AuthMiddleware verifies the bearer token and requires a root key. Every
// failure collapses to a single unauthorized response so that callers learn
// nothing about why a token was rejected.
func AuthMiddleware(verifier ports.RootKeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				writeError(w, domain.Unauthorized("missing or invalid authorization header"))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			auth, err := verifier.Verify(r.Context(), token)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("verifier_error").Inc()
				writeError(w, domain.Internal("unable to verify key"))
				return
			}

			if !auth.Valid {
				metrics.AuthFailuresTotal.WithLabelValues("invalid_key").Inc()
				writeError(w, domain.Unauthorized("invalid or expired key"))
				return
			}

			if !auth.Root {
				metrics.AuthFailuresTotal.WithLabelValues("not_root").Inc()
				writeError(w, domain.Unauthorized("key is not a root key"))
				return
			}

			ctx := context.WithValue(r.Context(), CtxAuth, auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
