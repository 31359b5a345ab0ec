package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"docshare/internal/access"
	"docshare/internal/session"
	"docshare/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// UserStore is the slice of the user repository the HTTP layer needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, pinHash string) (*types.User, error)
	User(ctx context.Context, userID int64) (*types.User, error)
	UserByEmail(ctx context.Context, email string) (*types.User, error)
}

type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *types.Document) error
	Document(ctx context.Context, documentID int64) (*types.Document, error)
	DocumentsByOwner(ctx context.Context, ownerID int64) ([]*types.Document, error)
	RenameDocument(ctx context.Context, documentID int64, name string) error
	DeleteDocument(ctx context.Context, documentID int64) error
}

// BlobStore holds document payloads, keyed by each document's storage key.
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	users     UserStore
	documents DocumentStore
	blobs     BlobStore

	sessions *session.Manager
	pins     *access.PinVerifier
	requests *access.RequestService

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	users UserStore,
	documents DocumentStore,
	requestStore access.RequestStore,
	blobs BlobStore,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}

	elevationTTL := time.Duration(config.ElevationTTLSec) * time.Second

	s := &Service{
		logger: logger,
		config: config,

		users:     users,
		documents: documents,
		blobs:     blobs,

		sessions: session.NewManager(hashKey, blockKey, config.CookieName, config.SessionMaxAgeSec),
		pins:     access.NewPinVerifier(users, elevationTTL),
		requests: access.NewRequestService(requestStore),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, primarily for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.WithSession)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/register", s.handleRegister, http.MethodPost)
	r.HandleFunc("/login", s.handleLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout, http.MethodPost)

	r.HandleFunc("/verify-pin/:userID", s.handleVerifyPin, http.MethodPost)

	// Endpoints a visitor reaches from a share link, before any approval.
	r.HandleFunc("/documents/owner/:ownerID", s.handleListOwnerDocuments, http.MethodGet)
	r.HandleFunc("/access-requests", s.handleCreateAccessRequest, http.MethodPost)
	r.HandleFunc("/share/:userID/qr", s.handleShareQR, http.MethodGet)

	// Read endpoints gate on the access decision, not on login, so an
	// anonymous session elevated by PIN can reach them.
	r.HandleFunc("/documents/:id/view", s.handleViewDocument, http.MethodGet)
	r.HandleFunc("/documents/:id/download", s.handleDownloadDocument, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/documents", s.handleListOwnDocuments, http.MethodGet)
		r.HandleFunc("/documents", s.handleUploadDocument, http.MethodPost)
		r.HandleFunc("/documents/:id", s.handleRenameDocument, http.MethodPatch)
		r.HandleFunc("/documents/:id", s.handleDeleteDocument, http.MethodDelete)

		r.HandleFunc("/access-requests", s.handleListAccessRequests, http.MethodGet)
		r.HandleFunc("/access-requests/:id", s.handleTransitionAccessRequest, http.MethodPatch)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
