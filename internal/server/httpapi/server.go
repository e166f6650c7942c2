// Package httpapi exposes the post and account services over JSON/HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/logging"
	"github.com/dmitrijs2005/snipbin/internal/server/auth"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address   string
	posts     *services.PostService
	accounts  *services.AccountService
	validator *auth.Validator
	cfg       *config.Config
	logger    logging.Logger
	// tokenLifetime is the max-age of the access_token cookie.
	tokenLifetime time.Duration
}

func NewServer(cfg *config.Config, l logging.Logger, ps *services.PostService, as *services.AccountService,
	v *auth.Validator, tokenLifetime time.Duration) *Server {
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		posts:         ps,
		accounts:      as,
		validator:     v,
		cfg:           cfg,
		logger:        l.With("module", "http_server"),
		tokenLifetime: tokenLifetime,
	}
}

// Handler returns the routed API with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /posts", s.handleListPosts)
	mux.HandleFunc("GET /posts/{id}", s.handleGetPost)
	mux.HandleFunc("GET /posts/{id}/raw", s.handleRawPost)
	mux.Handle("POST /posts", s.authenticated(true, s.handleCreatePost))
	mux.Handle("PATCH /posts/{id}", s.authenticated(s.cfg.StrictCredentials, s.handleUpdatePost))
	mux.Handle("DELETE /posts/{id}", s.authenticated(s.cfg.StrictCredentials, s.handleDeletePost))

	mux.HandleFunc("POST /users", s.handleRegister)
	mux.Handle("GET /users/me", s.authenticated(true, s.handleMe))
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.Handle("PATCH /users/{id}", s.authenticated(s.cfg.StrictCredentials, s.handleUpdateUser))
	mux.HandleFunc("POST /users/login", s.handleLogin)
	mux.HandleFunc("POST /users/logout", s.handleLogout)
	mux.Handle("POST /users/verify", s.authenticated(true, s.handleRequestVerification))
	mux.Handle("POST /users/verify/{code}", s.authenticated(true, s.handleVerify))
	mux.Handle("POST /users/password-reset", s.authenticated(true, s.handleRequestPasswordReset))
	mux.Handle("POST /users/password-reset/{code}", s.authenticated(true, s.handleResetPassword))

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
