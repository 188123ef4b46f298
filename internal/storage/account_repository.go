package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gym-buddy/internal/models"
)

// AccountRepository defines the interface for identity account operations.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// gormAccountRepository implements AccountRepository using GORM.
type gormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GORM-based AccountRepository.
func NewGormAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

// Create inserts a new account. A duplicate email yields ErrEmailTaken.
func (r *gormAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *gormAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &account, nil
}

// GetByEmail retrieves an account by its (normalized) email.
func (r *gormAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return &account, nil
}
