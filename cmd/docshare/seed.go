package main

import (
	"context"
	"fmt"

	"docshare/internal/db"
	"docshare/internal/seed"
	"docshare/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo users",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		userRepo := store.NewUserRepository(pool)

		logrus.Info("Seeding demo users...")
		if err := seed.SeedUsers(ctx, userRepo); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		logrus.Info("Demo users seeded successfully")

		return nil
	},
}
