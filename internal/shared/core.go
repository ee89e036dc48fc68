package shared

import (
	"context"
	"time"

	"ezm_trade_backend/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User represents a user in the system.
type User struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Role      common.Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// GetID implements UserDataForToken.
func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRole() common.Role {
	return u.Role
}

// Service defines the user lookups needed outside the user package.
type Service interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// UserDataForToken is an interface to abstract the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() common.Role
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Role   common.Role `json:"role"`
	jwt.RegisteredClaims
}
