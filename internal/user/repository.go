// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ezm_trade_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, role common.Role, page, pageSize int) ([]User, int64, error)
	// FindUnassignedStoreManagers returns active store managers that manage no store.
	FindUnassignedStoreManagers(ctx context.Context) ([]User, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = normalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return common.ErrConflict.WithDetails("User with this email already exists.")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by their email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this email.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByID retrieves a user by their ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// List pages through users, optionally restricted to one role.
func (r *gormRepository) List(ctx context.Context, role common.Role, page, pageSize int) ([]User, int64, error) {
	query := r.db.WithContext(ctx).Model(&User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	var users []User
	err := query.Order("created_at ASC").
		Offset(common.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// FindUnassignedStoreManagers relies on the stores table owned by the inventory package.
func (r *gormRepository) FindUnassignedStoreManagers(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", common.RoleStoreManager, true).
		Where("NOT EXISTS (SELECT 1 FROM stores WHERE stores.manager_id = users.id)").
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("finding unassigned store managers: %w", err)
	}
	return users, nil
}
