// Package access is the trust core of docshare: the read-access decision,
// the PIN verification protocol, and the access-request lifecycle. Every
// document view and download goes through CanRead.
package access

import (
	"time"

	"docshare/pkg/types"
)

// CanRead is the single authorization gate for reading a document. It is
// true iff the session is authenticated as the document's owner, or holds a
// live PIN elevation for that owner. An elevation for a different owner
// never qualifies. Approved access requests are administrative records and
// are not consulted here.
//
// CanRead is pure: it never mutates the session or the document.
func CanRead(sess *types.Session, doc *types.Document, now time.Time) bool {
	if sess == nil || doc == nil {
		return false
	}

	if sess.IsAuthenticated() && sess.AuthenticatedUserID == doc.OwnerID {
		return true
	}

	return sess.ElevatedFor(doc.OwnerID, now)
}
