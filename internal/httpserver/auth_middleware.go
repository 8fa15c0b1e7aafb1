package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"go-feed-cache/internal/auth"
)

// requireToken guards next with a bearer token check when a JWT secret is
// configured; without one it is a pass-through.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	if s.auth.JWTSecret == "" {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			s.writeErrorResponse(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := auth.Verify(token, s.auth.JWTSecret, s.auth.Issuer)
		if err != nil {
			s.logger.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
			s.writeErrorResponse(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		s.logger.Debug("Authorized request", zap.String("path", r.URL.Path), zap.String("subject", claims.Subject))
		next(w, r)
	}
}
