package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docshare/internal/pinhash"
	"docshare/pkg/types"
)

// UserGetter is the slice of the user store the PIN protocol needs.
type UserGetter interface {
	User(ctx context.Context, userID int64) (*types.User, error)
}

// PinVerifier checks a candidate PIN against a target user's stored hash
// and, on success, elevates the caller's session for that one target.
type PinVerifier struct {
	users UserGetter
	ttl   time.Duration
}

func NewPinVerifier(users UserGetter, ttl time.Duration) *PinVerifier {
	return &PinVerifier{users: users, ttl: ttl}
}

// Verify returns whether candidate matches the target's PIN. An unknown
// target and a wrong PIN are both reported as a plain false so the response
// never confirms whether a user id exists. On a match the session is
// elevated for the target until now+ttl; on a mismatch the session is left
// untouched. Store failures are returned as errors and are retryable.
func (v *PinVerifier) Verify(ctx context.Context, sess *types.Session, targetUserID int64, candidate string) (bool, error) {
	user, err := v.users.User(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load pin target: %w", err)
	}

	ok, err := pinhash.Verify(user.PINHash, candidate)
	if err != nil {
		return false, fmt.Errorf("verify pin for user %d: %w", targetUserID, err)
	}
	if !ok {
		return false, nil
	}

	sess.Elevate(targetUserID, time.Now().Add(v.ttl))
	return true, nil
}
