// Package session carries per-visitor authentication and elevation state in
// an encrypted cookie. The session travels with the browser; the server
// holds no session table. Handlers receive the decoded Session by reference
// and must Save after mutating it.
package session

import (
	"net/http"

	"docshare/pkg/types"

	"github.com/gorilla/securecookie"
)

type Manager struct {
	cookie *securecookie.SecureCookie
	name   string
	maxAge int
}

func NewManager(hashKey, blockKey []byte, name string, maxAgeSec int) *Manager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(maxAgeSec)

	return &Manager{
		cookie: sc,
		name:   name,
		maxAge: maxAgeSec,
	}
}

// Load decodes the visitor's session cookie. A missing, expired, or
// tampered cookie yields a fresh anonymous session rather than an error.
func (m *Manager) Load(r *http.Request) *types.Session {
	sess := new(types.Session)

	cookie, err := r.Cookie(m.name)
	if err != nil {
		return sess
	}

	if err := m.cookie.Decode(m.name, cookie.Value, sess); err != nil {
		return new(types.Session)
	}

	return sess
}

// Save writes the session back to the response as an encrypted cookie.
func (m *Manager) Save(w http.ResponseWriter, sess *types.Session) error {
	encoded, err := m.cookie.Encode(m.name, sess)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   m.maxAge,
	})

	return nil
}

// Clear drops the visitor's session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
