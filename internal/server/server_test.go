package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"docshare/internal/pinhash"
	"docshare/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// --- in-memory stores ---

type memUserStore struct {
	nextID int64
	byID   map[int64]*types.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[int64]*types.User)}
}

func (m *memUserStore) CreateUser(_ context.Context, email, pinHash string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.byID {
		if u.Email == email {
			return nil, types.ErrEmailConflict
		}
	}
	m.nextID++
	user := &types.User{ID: m.nextID, Email: email, PINHash: pinHash}
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUserStore) User(_ context.Context, userID int64) (*types.User, error) {
	u, ok := m.byID[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUserStore) UserByEmail(_ context.Context, email string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, types.ErrUserNotFound
}

type memDocumentStore struct {
	nextID int64
	byID   map[int64]*types.Document
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{byID: make(map[int64]*types.Document)}
}

func (m *memDocumentStore) nameTaken(ownerID int64, name string, excludeID int64) bool {
	for _, d := range m.byID {
		if d.OwnerID == ownerID && d.Name == name && d.ID != excludeID {
			return true
		}
	}
	return false
}

func (m *memDocumentStore) CreateDocument(_ context.Context, doc *types.Document) error {
	if m.nameTaken(doc.OwnerID, doc.Name, 0) {
		return types.ErrNameConflict
	}
	m.nextID++
	doc.ID = m.nextID
	clone := *doc
	m.byID[doc.ID] = &clone
	return nil
}

func (m *memDocumentStore) Document(_ context.Context, documentID int64) (*types.Document, error) {
	d, ok := m.byID[documentID]
	if !ok {
		return nil, types.ErrDocumentNotFound
	}
	clone := *d
	return &clone, nil
}

func (m *memDocumentStore) DocumentsByOwner(_ context.Context, ownerID int64) ([]*types.Document, error) {
	out := make([]*types.Document, 0)
	for _, d := range m.byID {
		if d.OwnerID == ownerID {
			clone := *d
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDocumentStore) RenameDocument(_ context.Context, documentID int64, name string) error {
	d, ok := m.byID[documentID]
	if !ok {
		return types.ErrDocumentNotFound
	}
	if m.nameTaken(d.OwnerID, name, documentID) {
		return types.ErrNameConflict
	}
	d.Name = name
	return nil
}

func (m *memDocumentStore) DeleteDocument(_ context.Context, documentID int64) error {
	if _, ok := m.byID[documentID]; !ok {
		return types.ErrDocumentNotFound
	}
	delete(m.byID, documentID)
	return nil
}

type memRequestStore struct {
	nextID   int64
	requests []*types.AccessRequest
}

func (m *memRequestStore) CreateRequest(_ context.Context, req *types.AccessRequest) error {
	m.nextID++
	req.ID = m.nextID
	clone := *req
	m.requests = append(m.requests, &clone)
	return nil
}

func (m *memRequestStore) Request(_ context.Context, requestID int64) (*types.AccessRequest, error) {
	for _, req := range m.requests {
		if req.ID == requestID {
			clone := *req
			return &clone, nil
		}
	}
	return nil, types.ErrRequestNotFound
}

func (m *memRequestStore) RequestsByTarget(_ context.Context, targetUserID int64) ([]*types.AccessRequest, error) {
	out := make([]*types.AccessRequest, 0)
	for _, req := range m.requests {
		if req.TargetUserID == targetUserID {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memRequestStore) UpdateRequestStatus(_ context.Context, requestID int64, status types.RequestStatus) error {
	for _, req := range m.requests {
		if req.ID == requestID {
			req.Status = status
			return nil
		}
	}
	return types.ErrRequestNotFound
}

type memBlobStore struct {
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Upload(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.blobs[key] = data
	return nil
}

func (m *memBlobStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, types.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

// --- harness ---

func newTestService(t *testing.T) *Service {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	config := &types.Config{
		ServerPort:       0,
		BaseURL:          "http://localhost:8080",
		CookieName:       "docshare_session",
		SessionMaxAgeSec: 3600,
		ElevationTTLSec:  900,
		CookieHashKey:    key,
		CookieBlockKey:   key,
		MaxUploadBytes:   1 << 20,
	}

	svc, err := New(config, logger, newMemUserStore(), newMemDocumentStore(), &memRequestStore{}, newMemBlobStore())
	require.NoError(t, err)
	return svc
}

// testClient plays one browser: it carries session cookies between calls.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, svc *Service) *testClient {
	return &testClient{t: t, handler: svc.Handler(), cookies: make(map[string]*http.Cookie)}
}

func (c *testClient) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("User-Agent", "test-agent/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}

	return rec
}

func (c *testClient) doJSON(method, path string, payload any) *httptest.ResponseRecorder {
	c.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(c.t, err)
	return c.do(method, path, bytes.NewReader(data), "application/json")
}

func (c *testClient) registerAndLogin(email, pin string) *types.User {
	c.t.Helper()

	rec := c.doJSON(http.MethodPost, "/register", map[string]string{"email": email, "pin": pin})
	require.Equal(c.t, http.StatusCreated, rec.Code)

	var user types.User
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = c.doJSON(http.MethodPost, "/login", map[string]string{"email": email, "pin": pin})
	require.Equal(c.t, http.StatusOK, rec.Code)

	return &user
}

func (c *testClient) upload(name, content string) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	return c.do(http.MethodPost, "/documents", &buf, mw.FormDataContentType())
}

func decodeDocument(t *testing.T, rec *httptest.ResponseRecorder) *types.Document {
	t.Helper()
	var doc types.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return &doc
}

// --- tests ---

func TestUploadNameConflicts(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	owner.registerAndLogin("u@example.com", "4921")

	rec := owner.upload("a.pdf", "first")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = owner.upload("a.pdf", "second")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = owner.upload("b.pdf", "third")
	require.Equal(t, http.StatusCreated, rec.Code)
	docB := decodeDocument(t, rec)

	rec = owner.doJSON(http.MethodPatch, fmt.Sprintf("/documents/%d", docB.ID), map[string]string{"name": "a.pdf"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Renaming to its own name is not a conflict with itself.
	rec = owner.doJSON(http.MethodPatch, fmt.Sprintf("/documents/%d", docB.ID), map[string]string{"name": "b.pdf"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPinElevationGrantsScopedReadAccess(t *testing.T) {
	svc := newTestService(t)

	ownerA := newTestClient(t, svc)
	userA := ownerA.registerAndLogin("a@example.com", "4921")
	rec := ownerA.upload("a.pdf", "payload-a")
	require.Equal(t, http.StatusCreated, rec.Code)
	docA := decodeDocument(t, rec)

	ownerB := newTestClient(t, svc)
	ownerB.registerAndLogin("b@example.com", "1111")
	rec = ownerB.upload("b.pdf", "payload-b")
	require.Equal(t, http.StatusCreated, rec.Code)
	docB := decodeDocument(t, rec)

	visitor := newTestClient(t, svc)

	// Without any session the document is unreachable.
	rec = visitor.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", docA.ID), nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Wrong PIN: opaque false, no elevation.
	rec = visitor.doJSON(http.MethodPost, fmt.Sprintf("/verify-pin/%d", userA.ID), map[string]string{"pin": "0000"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"valid":false}`, rec.Body.String())

	rec = visitor.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", docA.ID), nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown target user looks exactly like a wrong PIN.
	rec = visitor.doJSON(http.MethodPost, "/verify-pin/9999", map[string]string{"pin": "4921"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"valid":false}`, rec.Body.String())

	// Correct PIN elevates the session for owner A only.
	rec = visitor.doJSON(http.MethodPost, fmt.Sprintf("/verify-pin/%d", userA.ID), map[string]string{"pin": "4921"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"valid":true}`, rec.Body.String())

	rec = visitor.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", docA.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "payload-a", rec.Body.String())

	rec = visitor.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", docB.ID), nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadSetsAttachmentDisposition(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	owner.registerAndLogin("u@example.com", "4921")

	rec := owner.upload("report.pdf", "pdf-bytes")
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decodeDocument(t, rec)

	rec = owner.do(http.MethodGet, fmt.Sprintf("/documents/%d/download", doc.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="report.pdf"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "pdf-bytes", rec.Body.String())

	rec = owner.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", doc.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestMissingDocumentIsIndistinguishableFromDenied(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	owner.registerAndLogin("u@example.com", "4921")

	missing := owner.do(http.MethodGet, "/documents/999/view", nil, "")
	require.Equal(t, http.StatusForbidden, missing.Code)

	other := newTestClient(t, svc)
	other.registerAndLogin("v@example.com", "1111")
	rec := other.upload("secret.txt", "secret")
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decodeDocument(t, rec)

	denied := owner.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", doc.ID), nil, "")
	require.Equal(t, http.StatusForbidden, denied.Code)
	require.JSONEq(t, missing.Body.String(), denied.Body.String())
}

func TestAccessRequestLifecycle(t *testing.T) {
	svc := newTestService(t)

	owner := newTestClient(t, svc)
	user := owner.registerAndLogin("u@example.com", "4921")
	rec := owner.upload("a.pdf", "a")
	require.Equal(t, http.StatusCreated, rec.Code)
	docA := decodeDocument(t, rec)
	rec = owner.upload("b.pdf", "b")
	require.Equal(t, http.StatusCreated, rec.Code)
	docB := decodeDocument(t, rec)

	requester := newTestClient(t, svc)

	rec = requester.doJSON(http.MethodPost, "/access-requests", map[string]any{
		"userId":      user.ID,
		"documentIds": []int64{docA.ID, docB.ID},
		"location":    "Springfield",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.AccessRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, types.RequestStatusPending, created.Status)
	require.Equal(t, "test-agent/1.0", created.DeviceInfo)
	require.Equal(t, []int64{docA.ID, docB.ID}, created.RequestedIDs)

	// The owner sees the pending request.
	rec = owner.do(http.MethodGet, "/access-requests", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []types.AccessRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, types.RequestStatusPending, listed[0].Status)

	// A different owner may not resolve it.
	stranger := newTestClient(t, svc)
	stranger.registerAndLogin("s@example.com", "2222")
	rec = stranger.doJSON(http.MethodPatch, fmt.Sprintf("/access-requests/%d", created.ID), map[string]string{"status": "approved"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// An unauthenticated caller may not even list.
	rec = requester.do(http.MethodGet, "/access-requests", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The target owner approves.
	rec = owner.doJSON(http.MethodPatch, fmt.Sprintf("/access-requests/%d", created.ID), map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = owner.do(http.MethodGet, "/access-requests", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Equal(t, types.RequestStatusApproved, listed[0].Status)

	// Resolved requests stay resolved.
	rec = owner.doJSON(http.MethodPatch, fmt.Sprintf("/access-requests/%d", created.ID), map[string]string{"status": "denied"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Approval is bookkeeping: the requester still cannot read.
	rec = requester.do(http.MethodGet, fmt.Sprintf("/documents/%d/view", docA.ID), nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAccessRequestFromForm(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	user := owner.registerAndLogin("u@example.com", "4921")

	visitor := newTestClient(t, svc)
	body := fmt.Sprintf("userId=%d&all=true&location=Library", user.ID)
	rec := visitor.do(http.MethodPost, "/access-requests", strings.NewReader(body), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.AccessRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, created.RequestAll)
	require.NotNil(t, created.Location)
	require.Equal(t, "Library", *created.Location)
}

func TestAccessRequestRejectsEmptySelection(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	user := owner.registerAndLogin("u@example.com", "4921")

	visitor := newTestClient(t, svc)
	rec := visitor.doJSON(http.MethodPost, "/access-requests", map[string]any{"userId": user.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManagementEndpointsRequireAuth(t *testing.T) {
	svc := newTestService(t)
	visitor := newTestClient(t, svc)

	rec := visitor.do(http.MethodGet, "/documents", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = visitor.upload("a.pdf", "x")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = visitor.doJSON(http.MethodPatch, "/documents/1", map[string]string{"name": "b.pdf"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRenameAndDeleteAreOwnerOnly(t *testing.T) {
	svc := newTestService(t)

	owner := newTestClient(t, svc)
	owner.registerAndLogin("u@example.com", "4921")
	rec := owner.upload("a.pdf", "x")
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decodeDocument(t, rec)

	other := newTestClient(t, svc)
	other.registerAndLogin("v@example.com", "1111")

	rec = other.doJSON(http.MethodPatch, fmt.Sprintf("/documents/%d", doc.ID), map[string]string{"name": "b.pdf"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = other.do(http.MethodDelete, fmt.Sprintf("/documents/%d", doc.ID), nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = owner.do(http.MethodDelete, fmt.Sprintf("/documents/%d", doc.ID), nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = owner.do(http.MethodGet, "/documents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestPublicOwnerListingShowsOnlySummaries(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	user := owner.registerAndLogin("u@example.com", "4921")
	rec := owner.upload("a.pdf", "payload")
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decodeDocument(t, rec)

	visitor := newTestClient(t, svc)
	rec = visitor.do(http.MethodGet, fmt.Sprintf("/documents/owner/%d", user.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, float64(doc.ID), summaries[0]["id"])
	require.Equal(t, "a.pdf", summaries[0]["name"])
	require.NotContains(t, summaries[0], "sizeBytes")
	require.NotContains(t, summaries[0], "uploadedAt")

	rec = visitor.do(http.MethodGet, "/documents/owner/999", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutDropsSession(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	owner.registerAndLogin("u@example.com", "4921")

	rec := owner.do(http.MethodPost, "/logout", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = owner.do(http.MethodGet, "/documents", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIsOpaqueAboutUnknownEmails(t *testing.T) {
	svc := newTestService(t)
	client := newTestClient(t, svc)
	client.registerAndLogin("u@example.com", "4921")

	wrongPin := client.doJSON(http.MethodPost, "/login", map[string]string{"email": "u@example.com", "pin": "0000"})
	require.Equal(t, http.StatusUnauthorized, wrongPin.Code)

	unknown := client.doJSON(http.MethodPost, "/login", map[string]string{"email": "nobody@example.com", "pin": "4921"})
	require.Equal(t, http.StatusUnauthorized, unknown.Code)

	require.JSONEq(t, wrongPin.Body.String(), unknown.Body.String())
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	svc := newTestService(t)
	client := newTestClient(t, svc)

	rec := client.doJSON(http.MethodPost, "/register", map[string]string{"email": "u@example.com", "pin": "4921"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = client.doJSON(http.MethodPost, "/register", map[string]string{"email": "u@example.com", "pin": "9999"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = client.doJSON(http.MethodPost, "/register", map[string]string{"email": "u@example.com", "pin": "abcd"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareQR(t *testing.T) {
	svc := newTestService(t)
	owner := newTestClient(t, svc)
	user := owner.registerAndLogin("u@example.com", "4921")

	visitor := newTestClient(t, svc)
	rec := visitor.do(http.MethodGet, fmt.Sprintf("/share/%d/qr", user.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())

	rec = visitor.do(http.MethodGet, "/share/999/qr", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisteredPinWorksForElevation(t *testing.T) {
	// Sanity check that the hash written at registration verifies the same
	// PIN presented later through the protocol.
	hash, err := pinhash.Hash("4921")
	require.NoError(t, err)
	ok, err := pinhash.Verify(hash, "4921")
	require.NoError(t, err)
	require.True(t, ok)
}
