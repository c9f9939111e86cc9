package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/store"
)

// initializeDatabase opens the database, migrates the schema and seeds the
// first admin account on an empty install.
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if _, err := db.SeedAdmin(ctx, cfg.DefaultAdminEmail); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	return db, nil
}
