package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/platform/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrCreationFailure wraps persistence errors raised while creating a notification.
	// Producers log it and carry on; delivery is best effort.
	ErrCreationFailure = errors.New("notification could not be created")
	// ErrPartialFailure is returned by MarkAllAsRead when some, but not necessarily all, items failed.
	ErrPartialFailure = errors.New("some notifications could not be marked as read")
)

// Forwarder relays high priority notifications outside the application.
type Forwarder interface {
	Forward(title, message string)
}

// Service defines the interface for notification business logic.
type Service interface {
	CreateNotification(ctx context.Context, input CreateNotificationInput) (*Notification, error)
	GetUserNotifications(ctx context.Context, r Recipient, includeRead bool, limit int) ([]UserNotification, error)
	GetUnreadCount(ctx context.Context, r Recipient) (int, error)
	MarkAsRead(ctx context.Context, r Recipient, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, r Recipient) (MarkAllResult, error)
	Dismiss(ctx context.Context, r Recipient, notificationID uuid.UUID) error

	// Jobs related
	DeactivateExpired(ctx context.Context) (int64, error)
}

// ServiceImplementation implements the notification Service interface.
type ServiceImplementation struct {
	repo         Repository
	forwarder    Forwarder
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

// NewService creates a new notification service.
func NewService(repo Repository, forwarder Forwarder, cfg *config.Config, logger *zap.Logger) Service {
	return newService(repo, forwarder, cfg, logger, func() time.Time { return time.Now().UTC() })
}

func newService(repo Repository, forwarder Forwarder, cfg *config.Config, logger *zap.Logger, now func() time.Time) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		forwarder:    forwarder,
		validate:     validator.New(),
		logger:       logger.Named("NotificationService"),
		now:          now,
		defaultLimit: cfg.NotificationDefaultLimit,
		maxLimit:     cfg.NotificationMaxLimit,
	}
}

// CreateNotification validates input and persists a new active notification.
// Category is derived from the type. No deduplication happens here.
func (s *ServiceImplementation) CreateNotification(ctx context.Context, input CreateNotificationInput) (*Notification, error) {
	if err := s.validate.Struct(input); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, common.NewValidationAPIError(common.FormatValidationErrors(ve))
		}
		return nil, common.ErrBadRequest.WithDetails(err.Error())
	}

	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := s.now()
	n := &Notification{
		NotificationType:  input.Type,
		Category:          CategoryFor(input.Type),
		Title:             input.Title,
		Message:           input.Message,
		Priority:          priority,
		TargetRoles:       uniqueRoles(input.TargetRoles),
		TargetUsers:       uniqueUsers(input.TargetUsers),
		ActionURL:         optional(input.ActionURL),
		ActionText:        optional(input.ActionText),
		RelatedObjectType: optional(input.RelatedObjectType),
		RelatedObjectID:   optional(input.RelatedObjectID),
		RelatedUserID:     input.RelatedUserID,
		IsActive:          true,
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	if input.ExpiresHours != nil {
		expiresAt := now.Add(time.Duration(*input.ExpiresHours * float64(time.Hour)))
		n.ExpiresAt = &expiresAt
	}

	if err := s.repo.Create(ctx, n); err != nil {
		metrics.NotificationCreateFailures.WithLabelValues(string(input.Type)).Inc()
		s.logger.Error("Failed to create notification",
			zap.String("type", string(input.Type)),
			zap.String("title", input.Title),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCreationFailure, err)
	}

	metrics.NotificationsCreated.WithLabelValues(string(n.NotificationType)).Inc()
	s.logger.Debug("Notification created",
		zap.String("notificationID", n.ID.String()),
		zap.String("type", string(n.NotificationType)),
		zap.String("priority", string(n.Priority)))

	if n.Priority == PriorityHigh && s.forwarder != nil {
		s.forwarder.Forward(n.Title, n.Message)
	}
	return n, nil
}

// GetUserNotifications returns the recipient's listing, newest first. The limit caps the
// candidate set before read state is consulted, so older matches beyond it never show up.
// Dismissed items are always dropped; read items only when includeRead is false.
func (s *ServiceImplementation) GetUserNotifications(ctx context.Context, r Recipient, includeRead bool, limit int) ([]UserNotification, error) {
	if r.ID == uuid.Nil {
		return nil, common.ErrUnauthorized.WithDetails("User identity is required.")
	}
	limit = s.clampLimit(limit)

	candidates, err := s.repo.ListVisible(ctx, r, s.now(), limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []UserNotification{}, nil
	}

	ids := make([]uuid.UUID, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	statuses, err := s.repo.ReadStatuses(ctx, r.ID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]UserNotification, 0, len(candidates))
	for _, n := range candidates {
		st := statuses[n.ID]
		if st.IsDismissed {
			continue
		}
		if !includeRead && st.IsRead {
			continue
		}
		out = append(out, UserNotification{Notification: n, IsRead: st.IsRead, IsDismissed: st.IsDismissed})
	}
	return out, nil
}

// GetUnreadCount is the size of the default unread listing.
func (s *ServiceImplementation) GetUnreadCount(ctx context.Context, r Recipient) (int, error) {
	items, err := s.GetUserNotifications(ctx, r, false, s.defaultLimit)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// MarkAsRead marks one notification read for the recipient. Repeated calls succeed.
func (s *ServiceImplementation) MarkAsRead(ctx context.Context, r Recipient, notificationID uuid.UUID) error {
	if err := s.addressable(ctx, r, notificationID); err != nil {
		return err
	}
	changed, err := s.repo.MarkRead(ctx, r.ID, notificationID, s.now())
	if err != nil {
		s.logger.Error("Failed to mark notification as read",
			zap.String("notificationID", notificationID.String()),
			zap.String("userID", r.ID.String()),
			zap.Error(err))
		return err
	}
	if changed {
		metrics.NotificationsMarkedRead.WithLabelValues("single").Inc()
	}
	return nil
}

// MarkAllAsRead marks every unread notification currently visible to the recipient.
// A failing item does not stop the rest; failures are aggregated into ErrPartialFailure.
func (s *ServiceImplementation) MarkAllAsRead(ctx context.Context, r Recipient) (MarkAllResult, error) {
	var result MarkAllResult
	items, err := s.GetUserNotifications(ctx, r, false, s.maxLimit)
	if err != nil {
		return result, err
	}

	now := s.now()
	var errs error
	for _, item := range items {
		if _, err := s.repo.MarkRead(ctx, r.ID, item.Notification.ID, now); err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("notification %s: %w", item.Notification.ID, err))
			continue
		}
		result.Marked++
	}
	metrics.NotificationsMarkedRead.WithLabelValues("all").Add(float64(result.Marked))

	if errs != nil {
		s.logger.Warn("Mark all as read finished with failures",
			zap.String("userID", r.ID.String()),
			zap.Int("marked", result.Marked),
			zap.Int("failed", result.Failed),
			zap.Error(errs))
		return result, fmt.Errorf("%w: %w", ErrPartialFailure, errs)
	}
	return result, nil
}

// Dismiss hides a notification from every listing of the recipient.
func (s *ServiceImplementation) Dismiss(ctx context.Context, r Recipient, notificationID uuid.UUID) error {
	if err := s.addressable(ctx, r, notificationID); err != nil {
		return err
	}
	if _, err := s.repo.MarkDismissed(ctx, r.ID, notificationID, s.now()); err != nil {
		s.logger.Error("Failed to dismiss notification",
			zap.String("notificationID", notificationID.String()),
			zap.String("userID", r.ID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// DeactivateExpired switches off notifications whose expiry has passed.
func (s *ServiceImplementation) DeactivateExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Deactivated expired notifications", zap.Int64("count", count))
	}
	return count, nil
}

// addressable resolves the notification and rejects ones outside the recipient's audience
// with the same NotFound as a missing id.
func (s *ServiceImplementation) addressable(ctx context.Context, r Recipient, notificationID uuid.UUID) error {
	if r.ID == uuid.Nil {
		return common.ErrUnauthorized.WithDetails("User identity is required.")
	}
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if !n.Targets(r) {
		return common.ErrNotFound.WithDetails("Notification not found.")
	}
	return nil
}

func (s *ServiceImplementation) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func uniqueRoles(roles []common.Role) []common.Role {
	out := make([]common.Role, 0, len(roles))
	seen := make(map[common.Role]struct{}, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func uniqueUsers(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
