package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/store"
)

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s dur=%s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

type adminCtxKey struct{}

// requireAdmin wraps a handler with bearer-token authentication. The
// resolved administrator record is attached to the request context.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "missing_token", "bearer token required")
			return
		}

		adminID, err := parseToken(s.jwtSecret, tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}

		admin, err := s.admins.Get(r.Context(), adminID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), adminCtxKey{}, admin)
		next(w, r.WithContext(ctx))
	}
}

// adminFrom returns the authenticated administrator attached by
// requireAdmin. Zero value if the middleware did not run.
func adminFrom(ctx context.Context) store.AdminRecord {
	admin, _ := ctx.Value(adminCtxKey{}).(store.AdminRecord)
	return admin
}
