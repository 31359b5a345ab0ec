// Package seed loads demo accounts for local development.
package seed

import (
	"context"
	"errors"
	"fmt"

	"docshare/internal/pinhash"
	"docshare/internal/store"
	"docshare/pkg/types"

	"github.com/sirupsen/logrus"
)

type demoUser struct {
	email string
	pin   string
}

var demoUsers = []demoUser{
	{email: "alice@example.com", pin: "4921"},
	{email: "bob@example.com", pin: "1337"},
}

// SeedUsers creates the demo accounts, skipping any that already exist.
func SeedUsers(ctx context.Context, users *store.UserRepository) error {
	for _, demo := range demoUsers {
		hash, err := pinhash.Hash(demo.pin)
		if err != nil {
			return fmt.Errorf("hash pin for %s: %w", demo.email, err)
		}

		user, err := users.CreateUser(ctx, demo.email, hash)
		if err != nil {
			if errors.Is(err, types.ErrEmailConflict) {
				logrus.WithField("email", demo.email).Info("demo user already exists")
				continue
			}
			return fmt.Errorf("seed user %s: %w", demo.email, err)
		}

		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
			"pin":     demo.pin,
		}).Info("seeded demo user")
	}

	return nil
}
