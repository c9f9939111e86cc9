package store

import (
	"context"

	"github.com/go-authgate/deviceauth/internal/models"
)

// GetUserByID retrieves a user by primary key
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// CreateUser creates a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translateError(s.db.WithContext(ctx).Create(user).Error)
}

// UpdateUserRole changes a user's role, e.g. to block the account
func (s *Store) UpdateUserRole(ctx context.Context, id, role string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
