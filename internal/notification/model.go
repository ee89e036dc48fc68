package notification

import (
	"time"

	"ezm_trade_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	LowStockAlert           NotificationType = "low_stock_alert"
	OutOfStockAlert         NotificationType = "out_of_stock_alert"
	PendingRestockRequest   NotificationType = "pending_restock_request"
	PendingTransferRequest  NotificationType = "pending_transfer_request"
	RestockRequestApproved  NotificationType = "restock_request_approved"
	RestockRequestRejected  NotificationType = "restock_request_rejected"
	TransferRequestApproved NotificationType = "transfer_request_approved"
	TransferRequestRejected NotificationType = "transfer_request_rejected"
	UnassignedStoreManager  NotificationType = "unassigned_store_manager"
	StoreWithoutManager     NotificationType = "store_without_manager"
	NewUserRegistered       NotificationType = "new_user_registered"
	NewSupplierAdded        NotificationType = "new_supplier_added"
	PurchaseOrderCreated    NotificationType = "purchase_order_created"
	SystemAnnouncement      NotificationType = "system_announcement"
	SystemMaintenance       NotificationType = "system_maintenance"
)

// Category groups notification types for display.
type Category string

const (
	CategoryUserManagement Category = "user_management"
	CategoryRequests       Category = "requests"
	CategorySuppliers      Category = "suppliers"
	CategoryInventory      Category = "inventory"
	CategorySystem         Category = "system"
	CategoryGeneral        Category = "general"
)

var typeCategories = map[NotificationType]Category{
	UnassignedStoreManager:  CategoryUserManagement,
	StoreWithoutManager:     CategoryUserManagement,
	NewUserRegistered:       CategoryUserManagement,
	PendingRestockRequest:   CategoryRequests,
	PendingTransferRequest:  CategoryRequests,
	RestockRequestApproved:  CategoryRequests,
	RestockRequestRejected:  CategoryRequests,
	TransferRequestApproved: CategoryRequests,
	TransferRequestRejected: CategoryRequests,
	NewSupplierAdded:        CategorySuppliers,
	PurchaseOrderCreated:    CategorySuppliers,
	LowStockAlert:           CategoryInventory,
	OutOfStockAlert:         CategoryInventory,
	SystemAnnouncement:      CategorySystem,
	SystemMaintenance:       CategorySystem,
}

// CategoryFor maps a notification type to its display category. Unknown types are general.
func CategoryFor(t NotificationType) Category {
	if c, ok := typeCategories[t]; ok {
		return c
	}
	return CategoryGeneral
}

// Priority affects client-side sorting and highlighting only.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts free-form input (e.g. a request's priority field) to a Priority.
// "urgent" and "critical" collapse into high; anything unknown is medium.
func ParsePriority(raw string) Priority {
	switch Priority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(raw)
	}
	switch raw {
	case "urgent", "critical":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Recipient is the identity a notification listing is computed for.
type Recipient struct {
	ID   uuid.UUID
	Role common.Role
}

// Notification is a system-wide record targeted at roles and/or explicit users.
// Only IsActive changes after creation.
type Notification struct {
	common.BaseModel
	NotificationType  NotificationType                `gorm:"type:varchar(64);not null;index:idx_notifications_dedup,priority:1"`
	Category          Category                        `gorm:"type:varchar(32);not null"`
	Title             string                          `gorm:"type:varchar(255);not null"`
	Message           string                          `gorm:"type:text;not null"`
	Priority          Priority                        `gorm:"type:varchar(16);not null"`
	TargetRoles       datatypes.JSONSlice[common.Role] `gorm:"not null"`
	TargetUsers       datatypes.JSONSlice[uuid.UUID]   `gorm:"not null"`
	ActionURL         *string                         `gorm:"type:text"`
	ActionText        *string                         `gorm:"type:varchar(100)"`
	RelatedObjectType *string                         `gorm:"type:varchar(64)"`
	RelatedObjectID   *string                         `gorm:"type:varchar(64);index:idx_notifications_dedup,priority:2"`
	RelatedUserID     *uuid.UUID                      `gorm:"type:uuid;index"`
	ExpiresAt         *time.Time                      `gorm:"index"`
	IsActive          bool                            `gorm:"not null;index"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// IsExpired reports whether the notification's expiry has passed at now.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

// IsLive reports whether the notification is active and unexpired.
func (n *Notification) IsLive(now time.Time) bool {
	return n.IsActive && !n.IsExpired(now)
}

// Targets reports whether r is in the audience, either by role or as an explicit user.
func (n *Notification) Targets(r Recipient) bool {
	for _, role := range n.TargetRoles {
		if role == r.Role {
			return true
		}
	}
	for _, id := range n.TargetUsers {
		if id == r.ID {
			return true
		}
	}
	return false
}

// VisibleTo combines liveness and targeting.
func (n *Notification) VisibleTo(r Recipient, now time.Time) bool {
	return n.IsLive(now) && n.Targets(r)
}

// ReadStatus tracks one user's read/dismiss state for one notification.
// A missing row means unread and not dismissed.
type ReadStatus struct {
	common.BaseModel
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_read_status_user_notification,priority:1"`
	NotificationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_read_status_user_notification,priority:2;index"`
	IsRead         bool       `gorm:"not null"`
	IsDismissed    bool       `gorm:"not null"`
	ReadAt         *time.Time
	DismissedAt    *time.Time

	Notification *Notification `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM.
func (ReadStatus) TableName() string {
	return "notification_read_statuses"
}

// Models lists the tables owned by this package, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Notification{}, &ReadStatus{}}
}

// UserNotification is a notification joined with one user's status.
type UserNotification struct {
	Notification Notification
	IsRead       bool
	IsDismissed  bool
}

// DedupKey identifies "the same" notification for trigger deduplication.
type DedupKey struct {
	Type            NotificationType
	RelatedObjectID *string
	RelatedUserID   *uuid.UUID
}

// --- DTOs ---

// CreateNotificationInput carries everything needed to create a notification.
type CreateNotificationInput struct {
	Type              NotificationType `json:"notification_type" validate:"required"`
	Title             string           `json:"title" validate:"required,max=255"`
	Message           string           `json:"message" validate:"required"`
	TargetRoles       []common.Role    `json:"target_roles" validate:"dive,oneof=admin head_manager store_manager cashier supplier"`
	TargetUsers       []uuid.UUID      `json:"target_users"`
	Priority          Priority         `json:"priority" validate:"omitempty,oneof=low medium high"`
	ActionURL         string           `json:"action_url" validate:"max=2048"`
	ActionText        string           `json:"action_text" validate:"max=100"`
	RelatedObjectType string           `json:"related_object_type" validate:"max=64"`
	RelatedObjectID   string           `json:"related_object_id" validate:"max=64"`
	RelatedUserID     *uuid.UUID       `json:"related_user_id"`
	ExpiresHours      *float64         `json:"expires_hours" validate:"omitempty,gte=0,lte=87600"`
}

// CreateNotificationRequest is the HTTP body for announcements.
type CreateNotificationRequest struct {
	NotificationType string        `json:"notification_type" binding:"omitempty,max=64"`
	Title            string        `json:"title" binding:"required,max=255"`
	Message          string        `json:"message" binding:"required"`
	TargetRoles      []common.Role `json:"target_roles"`
	TargetUsers      []uuid.UUID   `json:"target_users"`
	Priority         string        `json:"priority" binding:"omitempty,oneof=low medium high"`
	ActionURL        string        `json:"action_url"`
	ActionText       string        `json:"action_text"`
	ExpiresHours     *float64      `json:"expires_hours" binding:"omitempty,gte=0,lte=87600"`
}

// MarkAllResult reports the outcome of a mark-all-as-read pass.
type MarkAllResult struct {
	Marked int `json:"marked"`
	Failed int `json:"failed"`
}

// NotificationResponse is the notification payload exposed to API clients.
type NotificationResponse struct {
	ID               uuid.UUID        `json:"id"`
	NotificationType NotificationType `json:"notification_type"`
	Category         Category         `json:"category"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	Priority         Priority         `json:"priority"`
	ActionURL        *string          `json:"action_url"`
	ActionText       *string          `json:"action_text"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
}

// UserNotificationResponse pairs a notification with the caller's status.
type UserNotificationResponse struct {
	Notification NotificationResponse `json:"notification"`
	IsRead       bool                 `json:"is_read"`
	IsDismissed  bool                 `json:"is_dismissed"`
}

// ToNotificationResponse converts a Notification model to its API shape.
func ToNotificationResponse(n *Notification) NotificationResponse {
	return NotificationResponse{
		ID:               n.ID,
		NotificationType: n.NotificationType,
		Category:         n.Category,
		Title:            n.Title,
		Message:          n.Message,
		Priority:         n.Priority,
		ActionURL:        n.ActionURL,
		ActionText:       n.ActionText,
		CreatedAt:        n.CreatedAt,
		ExpiresAt:        n.ExpiresAt,
	}
}

// ToUserNotificationResponses converts a listing to its API shape.
func ToUserNotificationResponses(items []UserNotification) []UserNotificationResponse {
	out := make([]UserNotificationResponse, len(items))
	for i := range items {
		out[i] = UserNotificationResponse{
			Notification: ToNotificationResponse(&items[i].Notification),
			IsRead:       items[i].IsRead,
			IsDismissed:  items[i].IsDismissed,
		}
	}
	return out
}
