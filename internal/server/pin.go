package server

import (
	"net/http"

	"docshare/pkg/types"
)

type verifyPinRequest struct {
	PIN string `json:"pin"`
}

type verifyPinResponse struct {
	Valid bool `json:"valid"`
}

// handleVerifyPin runs the PIN verification protocol against a target user.
// A valid PIN elevates the caller's session to verified owner for that one
// target. The response is {valid:false} for both a wrong PIN and an unknown
// target, so probing for user ids tells the caller nothing.
func (s *Service) handleVerifyPin(w http.ResponseWriter, r *http.Request) {
	targetUserID, err := paramInt64(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body verifyPinRequest
	if err := s.decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.PIN == "" {
		s.writeError(w, r, types.NewValidationError("pin", "required"))
		return
	}

	sess := s.sessionFromRequest(r)

	valid, err := s.pins.Verify(r.Context(), sess, targetUserID, body.PIN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if valid {
		if err := s.sessions.Save(w, sess); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, verifyPinResponse{Valid: valid})
}
