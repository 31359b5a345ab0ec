package server

import (
	"errors"
	"net/http"
	"strings"

	"docshare/internal/pinhash"
	"docshare/pkg/types"
)

type registerRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

type loginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

func validPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 12 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := s.decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	email := strings.TrimSpace(body.Email)
	if email == "" || !strings.Contains(email, "@") {
		s.writeError(w, r, types.NewValidationError("email", "required"))
		return
	}
	if !validPIN(body.PIN) {
		s.writeError(w, r, types.NewValidationError("pin", "must be 4 to 12 digits"))
		return
	}

	hash, err := pinhash.Hash(body.PIN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.CreateUser(r.Context(), email, hash)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := s.decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.UserByEmail(r.Context(), body.Email)
	if err != nil {
		// Unknown email and wrong PIN look the same to the caller.
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, r, types.ErrInvalidCredentials)
			return
		}
		s.writeError(w, r, err)
		return
	}

	ok, err := pinhash.Verify(user.PINHash, body.PIN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, types.ErrInvalidCredentials)
		return
	}

	sess := s.sessionFromRequest(r)
	sess.AuthenticatedUserID = user.ID
	if err := s.sessions.Save(w, sess); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
