package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/snipbin/internal/common"
)

// maxBodyBytes bounds request bodies: the largest post plus JSON overhead.
const maxBodyBytes = 2*common.ContentMaxLen + 4096

var errUnauthorizedBody = errors.New("unauthorized")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"error": err.Error()}
	var fe *common.FieldError
	if errors.As(err, &fe) {
		body["field"] = fe.Field
	}
	writeJSON(w, status, body)
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidCode):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrNoPendingCode):
		return http.StatusNotFound
	case errors.Is(err, common.ErrForbidden), errors.Is(err, common.ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, common.ErrCodeExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and
// replaced by a generic message; credential failures never reveal the reason.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	switch {
	case status == http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, common.ErrorInternal)
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, status, errUnauthorizedBody)
	default:
		writeError(w, status, err)
	}
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", common.ErrValidation, err)
	}
	return nil
}
