package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-authgate/deviceauth/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store persists device codes, devices, refresh tokens, users and audit logs.
// Every state transition that must happen at most once is a single
// conditional statement or runs inside one transaction.
type Store struct {
	db *gorm.DB
}

// New opens the database, migrates the schema and verifies the connection.
func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := openDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; a single connection also keeps a
		// :memory: database alive for the lifetime of the store.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.DeviceCode{},
		&models.Device{},
		&models.RefreshToken{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SeedAdmin creates an admin account with the given email when the users
// table is empty. It returns the created user, or nil when nothing was seeded.
func (s *Store) SeedAdmin(ctx context.Context, email string) (*models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 || email == "" {
		return nil, nil //nolint:nilnil // nothing seeded is not an error
	}

	user := &models.User{
		ID:    uuid.New().String(),
		Email: email,
		Name:  "Administrator",
		Role:  models.RoleAdmin,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateError(err)
	}
	log.Info().Str("user_id", user.ID).Str("email", email).Msg("Created default admin user")
	return user, nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the underlying GORM database connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// utc normalises timestamps before they are compared in SQL. SQLite compares
// timestamps as text, so all stored and queried times share one zone.
func utc(t time.Time) time.Time {
	return t.UTC()
}
