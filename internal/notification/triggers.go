package notification

import (
	"context"
	"fmt"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/platform/metrics"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TriggerStats summarizes a full trigger pass.
type TriggerStats struct {
	PendingRestockRequests  int `json:"pending_restock_requests"`
	PendingTransferRequests int `json:"pending_transfer_requests"`
	Created                 int `json:"created"`
}

// Triggers turns domain conditions into notifications.
//
// Every producer first asks the repository whether a live notification with the same
// type and related object/user already exists and skips creation if so. The check and the
// insert are not atomic: two passes running at the same moment can both see "absent" and
// both create. Such duplicates are tolerated.
type Triggers struct {
	service   Service
	repo      Repository
	staff     shared.StaffDirectory
	inventory shared.InventoryReader
	logger    *zap.Logger
	now       func() time.Time

	highPriorityThreshold int
	lowStockExpiryHours   float64
}

// NewTriggers creates the notification producers.
func NewTriggers(
	service Service,
	repo Repository,
	staff shared.StaffDirectory,
	inventory shared.InventoryReader,
	cfg *config.Config,
	logger *zap.Logger,
) *Triggers {
	return &Triggers{
		service:               service,
		repo:                  repo,
		staff:                 staff,
		inventory:             inventory,
		logger:                logger.Named("NotificationTriggers"),
		now:                   func() time.Time { return time.Now().UTC() },
		highPriorityThreshold: cfg.LowStockHighPriorityThreshold,
		lowStockExpiryHours:   float64(cfg.LowStockAlertExpiryHours),
	}
}

// RunAll runs every periodic check concurrently. A failing check does not cancel the
// others; every failure is joined into the returned error and the counts of the checks
// that completed are still reported.
func (t *Triggers) RunAll(ctx context.Context) (TriggerStats, error) {
	var (
		g                                          errgroup.Group
		managersCreated, storesCreated, lowCreated int
		restockPending, restockCreated             int
		transferPending, transferCreated           int
		managersErr, storesErr, lowErr             error
		restockErr, transferErr                    error
	)

	g.Go(func() error {
		managersCreated, managersErr = t.CheckUnassignedStoreManagers(ctx)
		return managersErr
	})
	g.Go(func() error {
		storesCreated, storesErr = t.CheckStoresWithoutManagers(ctx)
		return storesErr
	})
	g.Go(func() error {
		lowCreated, lowErr = t.CheckLowStock(ctx)
		return lowErr
	})
	g.Go(func() error {
		restockPending, restockCreated, restockErr = t.CheckPendingRestockRequests(ctx)
		return restockErr
	})
	g.Go(func() error {
		transferPending, transferCreated, transferErr = t.CheckPendingTransferRequests(ctx)
		return transferErr
	})

	waitErr := g.Wait()
	stats := TriggerStats{
		PendingRestockRequests:  restockPending,
		PendingTransferRequests: transferPending,
		Created:                 managersCreated + storesCreated + lowCreated + restockCreated + transferCreated,
	}

	if waitErr == nil {
		t.logger.Info("Trigger pass finished",
			zap.Int("created", stats.Created),
			zap.Int("pendingRestock", stats.PendingRestockRequests),
			zap.Int("pendingTransfer", stats.PendingTransferRequests))
		return stats, nil
	}

	// Wait only carries the first failure.
	err := multierr.Combine(managersErr, storesErr, lowErr, restockErr, transferErr)
	t.logger.Warn("Trigger pass finished with errors", zap.Int("created", stats.Created), zap.Error(err))
	return stats, err
}

// CheckUnassignedStoreManagers alerts admins about store managers with no store.
func (t *Triggers) CheckUnassignedStoreManagers(ctx context.Context) (int, error) {
	managers, err := t.staff.FindUnassignedStoreManagers(ctx)
	if err != nil {
		return 0, t.finish("unassigned_store_managers", fmt.Errorf("listing unassigned store managers: %w", err))
	}

	created := 0
	var errs error
	for _, m := range managers {
		userID := m.ID
		ok, err := t.createOnce(ctx, DedupKey{Type: UnassignedStoreManager, RelatedUserID: &userID}, CreateNotificationInput{
			Type:              UnassignedStoreManager,
			Title:             "Unassigned Store Manager",
			Message:           fmt.Sprintf("Store manager %s is not assigned to any store.", m.Name),
			TargetRoles:       []common.Role{common.RoleAdmin, common.RoleHeadManager},
			Priority:          PriorityHigh,
			ActionURL:         fmt.Sprintf("/users/%s", m.ID),
			ActionText:        "Assign Store",
			RelatedObjectType: "user",
			RelatedUserID:     &userID,
		})
		errs = multierr.Append(errs, err)
		if ok {
			created++
		}
	}
	return created, t.finish("unassigned_store_managers", errs)
}

// CheckStoresWithoutManagers alerts admins about stores nobody manages.
func (t *Triggers) CheckStoresWithoutManagers(ctx context.Context) (int, error) {
	stores, err := t.inventory.FindStoresWithoutManager(ctx)
	if err != nil {
		return 0, t.finish("stores_without_managers", fmt.Errorf("listing stores without managers: %w", err))
	}

	created := 0
	var errs error
	for _, s := range stores {
		storeID := s.ID.String()
		ok, err := t.createOnce(ctx, DedupKey{Type: StoreWithoutManager, RelatedObjectID: &storeID}, CreateNotificationInput{
			Type:              StoreWithoutManager,
			Title:             "Store Without Manager",
			Message:           fmt.Sprintf("Store %s has no assigned store manager.", s.Name),
			TargetRoles:       []common.Role{common.RoleAdmin, common.RoleHeadManager},
			Priority:          PriorityMedium,
			ActionURL:         fmt.Sprintf("/stores/%s", s.Slug),
			ActionText:        "Assign Manager",
			RelatedObjectType: "store",
			RelatedObjectID:   storeID,
		})
		errs = multierr.Append(errs, err)
		if ok {
			created++
		}
	}
	return created, t.finish("stores_without_managers", errs)
}

// CheckLowStock raises a stock alert for every stock row at or below its threshold.
func (t *Triggers) CheckLowStock(ctx context.Context) (int, error) {
	items, err := t.inventory.FindLowStock(ctx)
	if err != nil {
		return 0, t.finish("low_stock", fmt.Errorf("listing low stock: %w", err))
	}

	created := 0
	var errs error
	for _, item := range items {
		ok, err := t.CheckStockItem(ctx, item)
		errs = multierr.Append(errs, err)
		if ok {
			created++
		}
	}
	return created, t.finish("low_stock", errs)
}

// CheckStockItem raises the alert for a single stock row, if it needs one. An empty row
// gets an out-of-stock alert; otherwise the low-stock alert is high priority at or below
// the configured quantity and medium above it.
func (t *Triggers) CheckStockItem(ctx context.Context, item shared.LowStockItem) (bool, error) {
	if item.Quantity > item.Threshold {
		return false, nil
	}

	input := CreateNotificationInput{
		TargetRoles:       []common.Role{common.RoleHeadManager, common.RoleStoreManager},
		ActionURL:         fmt.Sprintf("/stores/%s/stock/%s", item.Store.Slug, item.StockID),
		ActionText:        "Restock",
		RelatedObjectType: "stock",
		RelatedObjectID:   item.StockID.String(),
		ExpiresHours:      &t.lowStockExpiryHours,
	}
	if item.ManagerID != nil {
		input.TargetUsers = append(input.TargetUsers, *item.ManagerID)
	}

	if item.Quantity <= 0 {
		input.Type = OutOfStockAlert
		input.Priority = PriorityHigh
		input.Title = fmt.Sprintf("Out of Stock: %s", item.ProductName)
		input.Message = fmt.Sprintf("%s is out of stock at %s.", item.ProductName, item.Store.Name)
	} else {
		input.Type = LowStockAlert
		input.Priority = PriorityMedium
		if item.Quantity <= t.highPriorityThreshold {
			input.Priority = PriorityHigh
		}
		input.Title = fmt.Sprintf("Low Stock Alert: %s", item.ProductName)
		input.Message = fmt.Sprintf("%s at %s has only %d units left (threshold %d).",
			item.ProductName, item.Store.Name, item.Quantity, item.Threshold)
	}

	objectID := input.RelatedObjectID
	return t.createOnce(ctx, DedupKey{Type: input.Type, RelatedObjectID: &objectID}, input)
}

// CheckPendingRestockRequests notifies head managers about every pending restock request
// and returns how many are pending.
func (t *Triggers) CheckPendingRestockRequests(ctx context.Context) (int, int, error) {
	return t.checkPending(ctx, shared.RequestKindRestock, "pending_restock_requests", t.NotifyRestockRequestCreated)
}

// CheckPendingTransferRequests is the transfer counterpart of CheckPendingRestockRequests.
func (t *Triggers) CheckPendingTransferRequests(ctx context.Context) (int, int, error) {
	return t.checkPending(ctx, shared.RequestKindTransfer, "pending_transfer_requests", t.NotifyTransferRequestCreated)
}

func (t *Triggers) checkPending(
	ctx context.Context,
	kind shared.RequestKind,
	check string,
	notify func(context.Context, shared.StockRequest) (bool, error),
) (int, int, error) {
	requests, err := t.inventory.FindPendingRequests(ctx, kind)
	if err != nil {
		return 0, 0, t.finish(check, fmt.Errorf("listing pending %s requests: %w", kind, err))
	}

	created := 0
	var errs error
	for _, req := range requests {
		ok, err := notify(ctx, req)
		errs = multierr.Append(errs, err)
		if ok {
			created++
		}
	}
	return len(requests), created, t.finish(check, errs)
}

// NotifyRestockRequestCreated tells head managers a restock request awaits review.
// Priority follows the request's own priority.
func (t *Triggers) NotifyRestockRequestCreated(ctx context.Context, req shared.StockRequest) (bool, error) {
	objectID := req.ID.String()
	return t.createOnce(ctx, DedupKey{Type: PendingRestockRequest, RelatedObjectID: &objectID}, CreateNotificationInput{
		Type:  PendingRestockRequest,
		Title: "New Restock Request",
		Message: fmt.Sprintf("%s requested %d units of %s for %s.",
			req.RequestedBy.Name, req.Quantity, req.ProductName, req.Store.Name),
		TargetRoles:       []common.Role{common.RoleHeadManager},
		Priority:          ParsePriority(req.Priority),
		ActionURL:         fmt.Sprintf("/requests/restock/%s", req.ID),
		ActionText:        "Review Request",
		RelatedObjectType: "restock_request",
		RelatedObjectID:   objectID,
		RelatedUserID:     &req.RequestedBy.ID,
	})
}

// NotifyTransferRequestCreated tells head managers a transfer request awaits review.
func (t *Triggers) NotifyTransferRequestCreated(ctx context.Context, req shared.StockRequest) (bool, error) {
	from := "another store"
	if req.FromStore != nil {
		from = req.FromStore.Name
	}
	objectID := req.ID.String()
	return t.createOnce(ctx, DedupKey{Type: PendingTransferRequest, RelatedObjectID: &objectID}, CreateNotificationInput{
		Type:  PendingTransferRequest,
		Title: "New Transfer Request",
		Message: fmt.Sprintf("%s requested a transfer of %d units of %s from %s to %s.",
			req.RequestedBy.Name, req.Quantity, req.ProductName, from, req.Store.Name),
		TargetRoles:       []common.Role{common.RoleHeadManager},
		Priority:          ParsePriority(req.Priority),
		ActionURL:         fmt.Sprintf("/requests/transfer/%s", req.ID),
		ActionText:        "Review Request",
		RelatedObjectType: "transfer_request",
		RelatedObjectID:   objectID,
		RelatedUserID:     &req.RequestedBy.ID,
	})
}

// NotifyRequestReviewed tells the requester the outcome of their request and retires the
// pending alert head managers were shown.
func (t *Triggers) NotifyRequestReviewed(ctx context.Context, req shared.StockRequest) (bool, error) {
	var nType NotificationType
	switch {
	case req.Kind == shared.RequestKindRestock && req.Status == shared.RequestApproved:
		nType = RestockRequestApproved
	case req.Kind == shared.RequestKindRestock && req.Status == shared.RequestRejected:
		nType = RestockRequestRejected
	case req.Kind == shared.RequestKindTransfer && req.Status == shared.RequestApproved:
		nType = TransferRequestApproved
	case req.Kind == shared.RequestKindTransfer && req.Status == shared.RequestRejected:
		nType = TransferRequestRejected
	default:
		return false, fmt.Errorf("request %s has not been reviewed (status %q)", req.ID, req.Status)
	}

	t.retirePending(ctx, req)

	message := fmt.Sprintf("Your %s request for %d units of %s was %s.", req.Kind, req.Quantity, req.ProductName, req.Status)
	if req.ReviewNotes != "" {
		message += " Notes: " + req.ReviewNotes
	}
	objectID := req.ID.String()
	return t.createOnce(ctx, DedupKey{Type: nType, RelatedObjectID: &objectID}, CreateNotificationInput{
		Type:              nType,
		Title:             fmt.Sprintf("%s Request %s", titleCase(string(req.Kind)), titleCase(string(req.Status))),
		Message:           message,
		TargetUsers:       []uuid.UUID{req.RequestedBy.ID},
		Priority:          PriorityMedium,
		ActionURL:         fmt.Sprintf("/requests/%s/%s", req.Kind, req.ID),
		ActionText:        "View Request",
		RelatedObjectType: string(req.Kind) + "_request",
		RelatedObjectID:   objectID,
	})
}

// retirePending switches off the "awaiting review" alert of a request that has been reviewed.
// A failure is logged; the requester is still told about the decision.
func (t *Triggers) retirePending(ctx context.Context, req shared.StockRequest) {
	pendingType := PendingRestockRequest
	if req.Kind == shared.RequestKindTransfer {
		pendingType = PendingTransferRequest
	}
	count, err := t.repo.DeactivateRelated(ctx, pendingType, req.ID.String(), t.now())
	if err != nil {
		t.logger.Warn("Failed to retire pending request notification",
			zap.String("requestID", req.ID.String()), zap.Error(err))
		return
	}
	if count > 0 {
		t.logger.Debug("Retired pending request notification",
			zap.String("requestID", req.ID.String()), zap.Int64("count", count))
	}
}

// createOnce creates the notification unless a live one with the same key exists.
func (t *Triggers) createOnce(ctx context.Context, key DedupKey, input CreateNotificationInput) (bool, error) {
	exists, err := t.repo.ExistsActive(ctx, key, t.now())
	if err != nil {
		return false, err
	}
	if exists {
		metrics.TriggerDuplicatesSkipped.WithLabelValues(string(key.Type)).Inc()
		return false, nil
	}
	if _, err := t.service.CreateNotification(ctx, input); err != nil {
		t.logger.Warn("Trigger could not create notification",
			zap.String("type", string(input.Type)),
			zap.String("relatedObjectID", input.RelatedObjectID),
			zap.Error(err))
		return false, err
	}
	return true, nil
}

func (t *Triggers) finish(check string, err error) error {
	if err != nil {
		metrics.TriggerRuns.WithLabelValues(check, "error").Inc()
		t.logger.Error("Notification trigger check failed", zap.String("check", check), zap.Error(err))
		return err
	}
	metrics.TriggerRuns.WithLabelValues(check, "ok").Inc()
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// NotifyUserRegistered tells admins about a newly created staff account.
func (t *Triggers) NotifyUserRegistered(ctx context.Context, u shared.UserRef, role common.Role) (bool, error) {
	userID := u.ID
	return t.createOnce(ctx, DedupKey{Type: NewUserRegistered, RelatedUserID: &userID}, CreateNotificationInput{
		Type:              NewUserRegistered,
		Title:             "New User Registered",
		Message:           fmt.Sprintf("%s joined as %s.", u.Name, role),
		TargetRoles:       []common.Role{common.RoleAdmin},
		Priority:          PriorityLow,
		ActionURL:         fmt.Sprintf("/users/%s", u.ID),
		ActionText:        "View User",
		RelatedObjectType: "user",
		RelatedUserID:     &userID,
	})
}
