package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/auth"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// authenticated runs the credential validator before h and stores the
// principal in the request context. Every credential failure gets the same
// 401 response; the reason only goes to the log.
func (s *Server) authenticated(strict bool, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.validator.Authenticate(r.Context(), r, strict)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				s.logger.Warn(r.Context(), "authentication failed", "path", r.URL.Path, "reason", err.Error())
			}
			s.fail(w, r, err)
			return
		}
		h(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// principal returns the caller stored by authenticated.
func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
