package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ezm_trade_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence boundary for notifications and per-user read state.
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	// ListVisible returns up to limit live notifications targeting r, newest first.
	ListVisible(ctx context.Context, r Recipient, now time.Time, limit int) ([]Notification, error)
	ReadStatuses(ctx context.Context, userID uuid.UUID, notificationIDs []uuid.UUID) (map[uuid.UUID]ReadStatus, error)
	// MarkRead and MarkDismissed report whether the flag actually transitioned.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error)
	MarkDismissed(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error)
	ExistsActive(ctx context.Context, key DedupKey, now time.Time) (bool, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	// DeactivateRelated switches off live notifications of one type about one object.
	DeactivateRelated(ctx context.Context, nType NotificationType, relatedObjectID string, now time.Time) (int64, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

const liveCondition = "is_active = ? AND (expires_at IS NULL OR expires_at > ?)"

// Create inserts a new notification into the database.
func (r *GORMRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// FindByID retrieves a notification regardless of its audience or liveness.
func (r *GORMRepository) FindByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var notification Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Notification not found.")
		}
		return nil, fmt.Errorf("failed to find notification %s: %w", id, err)
	}
	return &notification, nil
}

// ListVisible streams live notifications newest first and keeps the ones targeting r
// until limit is reached. Audience membership is evaluated in Go so the result does not
// depend on the JSON operators of the underlying database.
func (r *GORMRepository) ListVisible(ctx context.Context, rec Recipient, now time.Time, limit int) ([]Notification, error) {
	rows, err := r.db.WithContext(ctx).Model(&Notification{}).
		Where(liveCondition, true, now).
		Order("created_at DESC").
		Order("id DESC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("listing notifications for user %s failed: %w", rec.ID, err)
	}
	defer rows.Close()

	out := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := r.db.ScanRows(rows, &n); err != nil {
			return nil, fmt.Errorf("scanning notification row failed: %w", err)
		}
		if !n.VisibleTo(rec, now) {
			continue
		}
		out = append(out, n)
		if len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications failed: %w", err)
	}
	return out, nil
}

// ReadStatuses loads the user's status rows for the given notifications, keyed by notification ID.
func (r *GORMRepository) ReadStatuses(ctx context.Context, userID uuid.UUID, notificationIDs []uuid.UUID) (map[uuid.UUID]ReadStatus, error) {
	out := make(map[uuid.UUID]ReadStatus, len(notificationIDs))
	if len(notificationIDs) == 0 {
		return out, nil
	}
	var statuses []ReadStatus
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND notification_id IN ?", userID, notificationIDs).
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("fetching read statuses for user %s failed: %w", userID, err)
	}
	for _, st := range statuses {
		out[st.NotificationID] = st
	}
	return out, nil
}

// MarkRead upserts the status row and flips is_read once; repeated calls are no-ops.
func (r *GORMRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error) {
	return r.setFlag(ctx, userID, notificationID, "is_read", "read_at", at)
}

// MarkDismissed upserts the status row and flips is_dismissed once.
func (r *GORMRepository) MarkDismissed(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error) {
	return r.setFlag(ctx, userID, notificationID, "is_dismissed", "dismissed_at", at)
}

func (r *GORMRepository) setFlag(ctx context.Context, userID, notificationID uuid.UUID, flagColumn, timeColumn string, at time.Time) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status := ReadStatus{UserID: userID, NotificationID: notificationID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "notification_id"}},
			DoNothing: true,
		}).Create(&status).Error
		if err != nil {
			return fmt.Errorf("upserting read status: %w", err)
		}

		result := tx.Model(&ReadStatus{}).
			Where("user_id = ? AND notification_id = ? AND "+flagColumn+" = ?", userID, notificationID, false).
			Updates(map[string]interface{}{
				flagColumn:   true,
				timeColumn:   at,
				"updated_at": at,
			})
		if result.Error != nil {
			return fmt.Errorf("updating %s: %w", flagColumn, result.Error)
		}
		changed = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to set %s on notification %s for user %s: %w", flagColumn, notificationID, userID, err)
	}
	return changed, nil
}

// ExistsActive reports whether a live notification with the same dedup key exists.
func (r *GORMRepository) ExistsActive(ctx context.Context, key DedupKey, now time.Time) (bool, error) {
	query := r.db.WithContext(ctx).Model(&Notification{}).
		Where("notification_type = ?", key.Type).
		Where(liveCondition, true, now)
	if key.RelatedObjectID != nil {
		query = query.Where("related_object_id = ?", *key.RelatedObjectID)
	}
	if key.RelatedUserID != nil {
		query = query.Where("related_user_id = ?", *key.RelatedUserID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking for existing %s notification failed: %w", key.Type, err)
	}
	return count > 0, nil
}

// DeactivateExpired flips is_active off for every notification whose expiry has passed.
func (r *GORMRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate expired notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeactivateRelated flips is_active off for live notifications of nType about relatedObjectID.
func (r *GORMRepository) DeactivateRelated(ctx context.Context, nType NotificationType, relatedObjectID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("notification_type = ? AND related_object_id = ? AND is_active = ?", nType, relatedObjectID, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate %s notifications for %s: %w", nType, relatedObjectID, result.Error)
	}
	return result.RowsAffected, nil
}
