package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/services"
	"github.com/google/uuid"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	a, err := s.accounts.Register(r.Context(), services.Registration{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "Registered", "id", a.ID.String())
	writeJSON(w, http.StatusCreated, toAccountResponse(a))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAccountResponse(principal(r).Account))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, common.ErrorNotFound)
		return
	}
	a, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, common.ErrorNotFound)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	a, err := s.accounts.Update(r.Context(), principal(r).UserID, id, models.AccountPatch{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	login := req.Email
	if login == "" {
		login = req.Name
	}
	if login == "" {
		s.fail(w, r, common.NewFieldError("email", fmt.Errorf("%w: either email or name is required", common.ErrValidation)))
		return
	}

	a, token, err := s.accounts.Login(r.Context(), login, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.setTokenCookie(w, token, s.tokenLifetime)
	writeJSON(w, http.StatusOK, loginResponse{accountResponse: toAccountResponse(a), AccessToken: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setTokenCookie(w, "", 0)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequestVerification(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.RequestVerification(r.Context(), principal(r).Account); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	code, err := codeParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.accounts.Verify(r.Context(), principal(r).Account, code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.RequestPasswordReset(r.Context(), principal(r).Account); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	code, err := codeParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.accounts.ResetPassword(r.Context(), principal(r).Account, code, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	s.setTokenCookie(w, "", 0)
	w.WriteHeader(http.StatusNoContent)
}

func codeParam(r *http.Request) (uuid.UUID, error) {
	code, err := uuid.Parse(r.PathValue("code"))
	if err != nil {
		return uuid.Nil, common.NewFieldError("code", fmt.Errorf("%w: not a uuid", common.ErrValidation))
	}
	return code, nil
}

// setTokenCookie stores token in the access_token cookie. A zero lifetime
// expires the cookie immediately.
func (s *Server) setTokenCookie(w http.ResponseWriter, token string, lifetime time.Duration) {
	c := &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if lifetime > 0 {
		c.MaxAge = int(lifetime.Seconds())
	} else {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, c)
}
