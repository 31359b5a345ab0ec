package server

import (
	"fmt"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// handleShareQR renders a QR code routing a third party to the owner's
// request-access flow.
func (s *Service) handleShareQR(w http.ResponseWriter, r *http.Request) {
	userID, err := paramInt64(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.users.User(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}

	shareURL := fmt.Sprintf("%s/request-access/%d", strings.TrimRight(s.config.BaseURL, "/"), userID)

	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		s.logger.WithError(err).Error("failed to write qr code")
	}
}
