package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"docshare/pkg/types"

	"github.com/alexedwards/flow"
)

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response body")
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Every category is
// surfaced distinctly; anything unrecognized is treated as transient and
// reported as a 500 the caller may retry.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
		return
	}

	switch {
	case errors.Is(err, types.ErrUnauthorized), errors.Is(err, types.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, types.ErrForbidden):
		s.writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, types.ErrUserNotFound),
		errors.Is(err, types.ErrDocumentNotFound),
		errors.Is(err, types.ErrRequestNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, types.ErrNameConflict),
		errors.Is(err, types.ErrEmailConflict),
		errors.Is(err, types.ErrInvalidTransition):
		s.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (s *Service) decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return types.NewValidationError("body", "malformed json")
	}
	return nil
}

func paramInt64(r *http.Request, name string) (int64, error) {
	raw := flow.Param(r.Context(), name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
