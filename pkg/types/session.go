package types

import "time"

// Session is the per-visitor state carried in the encrypted session cookie.
// It holds two independent facts: an authenticated owner identity set at
// login, and a PIN elevation scoped to a single target owner. The zero value
// is an anonymous session.
type Session struct {
	AuthenticatedUserID int64

	// VerifiedOwnerID is set by a successful PIN check and grants
	// owner-equivalent read rights for that one owner until VerifiedUntil.
	VerifiedOwnerID int64
	VerifiedUntil   time.Time
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AuthenticatedUserID != 0
}

// ElevatedFor reports whether the session holds a live PIN elevation for
// ownerID. An elevation for one owner never satisfies a check for another.
func (s *Session) ElevatedFor(ownerID int64, now time.Time) bool {
	if s == nil || s.VerifiedOwnerID == 0 || ownerID == 0 {
		return false
	}
	return s.VerifiedOwnerID == ownerID && now.Before(s.VerifiedUntil)
}

// Elevate marks the session as a verified owner for targetUserID until the
// given deadline, replacing any previous elevation.
func (s *Session) Elevate(targetUserID int64, until time.Time) {
	s.VerifiedOwnerID = targetUserID
	s.VerifiedUntil = until
}
