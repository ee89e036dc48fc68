// File: internal/user/model.go
package user

import (
	"strings"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"
)

// User represents a staff account.
type User struct {
	common.BaseModel
	Email     string      `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName string      `gorm:"type:varchar(100)"`
	LastName  string      `gorm:"type:varchar(100)"`
	Role      common.Role `gorm:"type:varchar(32);not null;index"`
	IsActive  bool        `gorm:"not null"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// CreateUserRequest defines the structure for creating a staff account.
type CreateUserRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	FirstName string      `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName  string      `json:"last_name,omitempty" binding:"omitempty,max=100"`
	Role      common.Role `json:"role" binding:"required,oneof=admin head_manager store_manager cashier supplier"`
}

// ToShared converts the GORM model to the shared user DTO.
func (u *User) ToShared() *shared.User {
	if u == nil {
		return nil
	}
	return &shared.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Ref returns the short reference used by notification producers.
func (u *User) Ref() shared.UserRef {
	return shared.UserRef{ID: u.ID, Name: u.ToShared().FullName(), Email: u.Email}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
