package user

import (
	"context"
	"errors"
	"fmt"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for user business logic.
type Service interface {
	shared.Service
	CreateUser(ctx context.Context, req CreateUserRequest) (*shared.User, error)
	ListUsers(ctx context.Context, role common.Role, page, pageSize int) ([]shared.User, *common.Pagination, error)
}

// RegistrationNotifier is told about every new staff account.
type RegistrationNotifier interface {
	NotifyUserRegistered(ctx context.Context, u shared.UserRef, role common.Role) (bool, error)
}

// ServiceImplementation implements the user Service interface.
type ServiceImplementation struct {
	repo     Repository
	notifier RegistrationNotifier
	logger   *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(repo Repository, notifier RegistrationNotifier, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:     repo,
		notifier: notifier,
		logger:   logger.Named("UserService"),
	}
}

// GetUserByID retrieves a user by their ID.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dbUser.ToShared(), nil
}

// CreateUser adds an active staff account and announces it to admins.
func (s *ServiceImplementation) CreateUser(ctx context.Context, req CreateUserRequest) (*shared.User, error) {
	if !req.Role.Valid() {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown role %q.", req.Role))
	}
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, common.ErrConflict.WithDetails("User with this email already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user by email: %w", err)
	}

	dbUser := &User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, dbUser); err != nil {
		s.logger.Error("Failed to create user in repository", zap.Error(err), zap.String("email", req.Email))
		return nil, err
	}

	if s.notifier != nil {
		if _, err := s.notifier.NotifyUserRegistered(ctx, dbUser.Ref(), dbUser.Role); err != nil {
			s.logger.Warn("Could not announce new user", zap.String("userID", dbUser.ID.String()), zap.Error(err))
		}
	}
	return dbUser.ToShared(), nil
}

// ListUsers pages through staff accounts.
func (s *ServiceImplementation) ListUsers(ctx context.Context, role common.Role, page, pageSize int) ([]shared.User, *common.Pagination, error) {
	if role != "" && !role.Valid() {
		return nil, nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown role %q.", role))
	}
	users, total, err := s.repo.List(ctx, role, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	out := make([]shared.User, len(users))
	for i := range users {
		out[i] = *users[i].ToShared()
	}
	return out, common.NewPagination(total, page, pageSize), nil
}

// StaffDirectory exposes staff queries to the notification triggers.
type StaffDirectory struct {
	repo Repository
}

var _ shared.StaffDirectory = (*StaffDirectory)(nil)

// NewStaffDirectory creates a StaffDirectory over the user repository.
func NewStaffDirectory(repo Repository) *StaffDirectory {
	return &StaffDirectory{repo: repo}
}

// FindUnassignedStoreManagers implements shared.StaffDirectory.
func (d *StaffDirectory) FindUnassignedStoreManagers(ctx context.Context) ([]shared.UserRef, error) {
	users, err := d.repo.FindUnassignedStoreManagers(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]shared.UserRef, len(users))
	for i := range users {
		refs[i] = users[i].Ref()
	}
	return refs, nil
}
