package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diet-tracker/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles user data access
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateAccount inserts the user and its metrics row in one transaction.
// A unique violation is reported as ErrDuplicateEmail when the email is
// registered, otherwise as ErrDuplicateSession.
func (r *UserRepository) CreateAccount(ctx context.Context, user *models.User, metrics *models.Metrics) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(metrics).Error
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	taken, lookupErr := r.EmailExists(ctx, user.Email)
	if lookupErr != nil {
		return lookupErr
	}
	if taken {
		return ErrDuplicateEmail
	}
	return ErrDuplicateSession
}

// FindUserByEmail retrieves a user by email
func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindUserBySession retrieves a user by session id
func (r *UserRepository) FindUserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// UpdateUser writes the supplied credential fields in a single statement
func (r *UserRepository) UpdateUser(ctx context.Context, sessionID string, changes models.CredentialChanges) error {
	cols := changes.Columns(time.Now())
	if len(cols) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("session_id = ?", sessionID).Updates(cols)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
