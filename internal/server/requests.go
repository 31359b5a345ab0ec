package server

import (
	"net/http"
	"strings"

	"docshare/internal/utils"
	"docshare/pkg/types"
)

// createAccessRequestInput is accepted both as JSON and as a browser form
// post, since the request-access flow is reached from a QR share link.
type createAccessRequestInput struct {
	UserID    int64   `json:"userId" form:"userId"`
	All       bool    `json:"all" form:"all"`
	Documents []int64 `json:"documentIds" form:"documents"`
	Location  string  `json:"location" form:"location"`
}

func (s *Service) handleCreateAccessRequest(w http.ResponseWriter, r *http.Request) {
	var input createAccessRequestInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := s.decodeJSON(r, &input); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, r, types.NewValidationError("body", "malformed form"))
			return
		}
		if err := decoder.Decode(&input, r.Form); err != nil {
			s.writeError(w, r, types.NewValidationError("body", "malformed form"))
			return
		}
	}

	var location *string
	if trimmed := strings.TrimSpace(input.Location); trimmed != "" {
		location = utils.StringPtr(trimmed)
	}

	sel := types.DocumentSelection{All: input.All, IDs: input.Documents}

	req, err := s.requests.Create(r.Context(), input.UserID, sel, r.UserAgent(), location)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, req)
}

func (s *Service) handleListAccessRequests(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(r)

	reqs, err := s.requests.List(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reqs)
}

type transitionRequestBody struct {
	Status types.RequestStatus `json:"status"`
}

func (s *Service) handleTransitionAccessRequest(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(r)

	requestID, err := paramInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body transitionRequestBody
	if err := s.decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := s.requests.Transition(r.Context(), sess, requestID, body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}
