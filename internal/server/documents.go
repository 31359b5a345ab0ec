package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docshare/internal/access"
	"docshare/internal/utils"
	"docshare/pkg/types"
)

// documentSummary is the public shape shown to requesters choosing which
// documents to ask for. No size, key, or timestamp leaks.
type documentSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

func (s *Service) handleListOwnDocuments(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(r)

	docs, err := s.documents.DocumentsByOwner(r.Context(), sess.AuthenticatedUserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, docs)
}

func (s *Service) handleListOwnerDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID, err := paramInt64(r, "ownerID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.users.User(r.Context(), ownerID); err != nil {
		s.writeError(w, r, err)
		return
	}

	docs, err := s.documents.DocumentsByOwner(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summaries := make([]documentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, documentSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			ContentType: doc.ContentType,
		})
	}

	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Service) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	sess := s.sessionFromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.writeError(w, r, types.NewValidationError("body", "malformed or oversized multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, types.NewValidationError("file", "required"))
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	if name == "" {
		s.writeError(w, r, types.NewValidationError("name", "required"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := &types.Document{
		OwnerID:     sess.AuthenticatedUserID,
		Name:        name,
		ContentType: contentType,
		SizeBytes:   header.Size,
		StorageKey:  utils.StorageKey(),
	}

	if err := s.blobs.Upload(ctx, doc.StorageKey, file, contentType); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		// The metadata row is the source of truth; drop the orphan payload.
		if delErr := s.blobs.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.WithError(delErr).WithField("storage_key", doc.StorageKey).Warn("failed to delete orphaned payload")
		}
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, doc)
}

type renameDocumentRequest struct {
	Name string `json:"name"`
}

func (s *Service) handleRenameDocument(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	sess := s.sessionFromRequest(r)

	documentID, err := paramInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body renameDocumentRequest
	if err := s.decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		s.writeError(w, r, types.NewValidationError("name", "required"))
		return
	}

	doc, err := s.documents.Document(ctx, documentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if doc.OwnerID != sess.AuthenticatedUserID {
		s.writeError(w, r, types.ErrForbidden)
		return
	}

	if err := s.documents.RenameDocument(ctx, documentID, name); err != nil {
		s.writeError(w, r, err)
		return
	}

	doc.Name = name
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	sess := s.sessionFromRequest(r)

	documentID, err := paramInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.documents.Document(ctx, documentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if doc.OwnerID != sess.AuthenticatedUserID {
		s.writeError(w, r, types.ErrForbidden)
		return
	}

	if err := s.documents.DeleteDocument(ctx, documentID); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.WithError(err).WithField("storage_key", doc.StorageKey).Warn("failed to delete payload")
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleViewDocument(w http.ResponseWriter, r *http.Request) {
	s.serveDocument(w, r, false)
}

func (s *Service) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	s.serveDocument(w, r, true)
}

// serveDocument is gated by the access decision function. A document that
// does not exist and a document the caller may not read produce the same
// forbidden response, so fetching by id never confirms existence.
func (s *Service) serveDocument(w http.ResponseWriter, r *http.Request, attachment bool) {
	var ctx = r.Context()

	documentID, err := paramInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.documents.Document(ctx, documentID)
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			s.writeError(w, r, types.ErrForbidden)
			return
		}
		s.writeError(w, r, err)
		return
	}

	sess := s.sessionFromRequest(r)
	if !access.CanRead(sess, doc, time.Now()) {
		s.writeError(w, r, types.ErrForbidden)
		return
	}

	body, err := s.blobs.Download(ctx, doc.StorageKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	}

	if _, err := io.Copy(w, body); err != nil {
		s.logger.WithError(err).WithField("document_id", doc.ID).Error("failed to stream payload")
	}
}
