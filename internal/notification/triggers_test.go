package notification

import (
	"context"
	"testing"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newTestTriggers(f *fixture, staff shared.StaffDirectory, inv shared.InventoryReader) *Triggers {
	t := NewTriggers(f.service, f.repo, staff, inv, testConfig(), zap.NewNop())
	t.now = f.clock.Now
	return t
}

func countByType(t *testing.T, f *fixture, nType NotificationType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&Notification{}).Where("notification_type = ?", nType).Count(&count).Error)
	return count
}

func TestTriggers_SequentialRunsCreateOneNotificationPerItem(t *testing.T) {
	f := newFixture(t)
	managerID := uuid.New()
	store := shared.StoreRef{ID: uuid.New(), Name: "Bole Store", Slug: "bole-store"}
	inv := &fakeInventory{
		stores: []shared.StoreRef{{ID: uuid.New(), Name: "Piassa", Slug: "piassa"}},
		low: []shared.LowStockItem{
			{StockID: uuid.New(), ProductName: "Teff Flour", Store: store, Quantity: 3, Threshold: 10, ManagerID: &managerID},
		},
		requests: map[shared.RequestKind][]shared.StockRequest{
			shared.RequestKindRestock: {
				{ID: uuid.New(), Kind: shared.RequestKindRestock, Status: shared.RequestPending, ProductName: "Sugar", Quantity: 20, Priority: "urgent", Store: store, RequestedBy: shared.UserRef{ID: managerID, Name: "Abebe"}},
			},
			shared.RequestKindTransfer: {},
		},
	}
	staff := &fakeStaff{managers: []shared.UserRef{{ID: uuid.New(), Name: "Sara"}}}
	triggers := newTestTriggers(f, staff, inv)

	stats, err := triggers.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerStats{PendingRestockRequests: 1, PendingTransferRequests: 0, Created: 4}, stats)

	stats, err = triggers.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created, "existing live notifications suppress duplicates")
	assert.Equal(t, 1, stats.PendingRestockRequests)

	assert.Equal(t, int64(1), countByType(t, f, LowStockAlert))
	assert.Equal(t, int64(1), countByType(t, f, UnassignedStoreManager))
	assert.Equal(t, int64(1), countByType(t, f, StoreWithoutManager))
	assert.Equal(t, int64(1), countByType(t, f, PendingRestockRequest))
}

func TestTriggers_ExpiredAlertIsRaisedAgain(t *testing.T) {
	f := newFixture(t)
	item := shared.LowStockItem{StockID: uuid.New(), ProductName: "Oil", Store: shared.StoreRef{Name: "Bole"}, Quantity: 8, Threshold: 10}
	triggers := newTestTriggers(f, &fakeStaff{}, &fakeInventory{})

	ok, err := triggers.CheckStockItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, ok)

	f.clock.Advance(49 * time.Hour)
	ok, err = triggers.CheckStockItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), countByType(t, f, LowStockAlert))
}

func TestTriggers_StockPriorityPolicy(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int
		wantType     NotificationType
		wantPriority Priority
	}{
		{name: "empty", quantity: 0, wantType: OutOfStockAlert, wantPriority: PriorityHigh},
		{name: "at cutoff", quantity: 5, wantType: LowStockAlert, wantPriority: PriorityHigh},
		{name: "above cutoff", quantity: 6, wantType: LowStockAlert, wantPriority: PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			managerID := uuid.New()
			triggers := newTestTriggers(f, &fakeStaff{}, &fakeInventory{})
			item := shared.LowStockItem{
				StockID: uuid.New(), ProductName: "Coffee", Store: shared.StoreRef{Name: "Merkato", Slug: "merkato"},
				Quantity: tt.quantity, Threshold: 10, ManagerID: &managerID,
			}

			ok, err := triggers.CheckStockItem(context.Background(), item)
			require.NoError(t, err)
			require.True(t, ok)

			var n Notification
			require.NoError(t, f.db.Where("notification_type = ?", tt.wantType).First(&n).Error)
			assert.Equal(t, tt.wantPriority, n.Priority)
			assert.ElementsMatch(t, []common.Role{common.RoleHeadManager, common.RoleStoreManager}, []common.Role(n.TargetRoles))
			assert.Equal(t, []uuid.UUID{managerID}, []uuid.UUID(n.TargetUsers))
			require.NotNil(t, n.ExpiresAt)
			assert.Equal(t, "/stores/merkato/stock/"+item.StockID.String(), *n.ActionURL)
		})
	}
}

func TestTriggers_StockAboveThresholdIsIgnored(t *testing.T) {
	f := newFixture(t)
	triggers := newTestTriggers(f, &fakeStaff{}, &fakeInventory{})

	ok, err := triggers.CheckStockItem(context.Background(), shared.LowStockItem{StockID: uuid.New(), Quantity: 11, Threshold: 10})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTriggers_FailingCheckDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	inv := &fakeInventory{
		stores: []shared.StoreRef{{ID: uuid.New(), Name: "Adama", Slug: "adama"}},
		lowErr: errStockUnavailable,
	}
	triggers := newTestTriggers(f, &fakeStaff{err: errBoom}, inv)

	stats, err := triggers.RunAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, errStockUnavailable)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, int64(1), countByType(t, f, StoreWithoutManager))
}

func TestTriggers_ReviewedRequestTargetsRequester(t *testing.T) {
	f := newFixture(t)
	triggers := newTestTriggers(f, &fakeStaff{}, &fakeInventory{})
	requester := recipient(common.RoleStoreManager)
	req := shared.StockRequest{
		ID: uuid.New(), Kind: shared.RequestKindTransfer, Status: shared.RequestRejected,
		ProductName: "Rice", Quantity: 4, ReviewNotes: "Source store is short too",
		RequestedBy: shared.UserRef{ID: requester.ID, Name: "Hana"},
	}

	ok, err := triggers.NotifyRequestReviewed(context.Background(), req)
	require.NoError(t, err)
	require.True(t, ok)

	items, err := f.service.GetUserNotifications(context.Background(), requester, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, TransferRequestRejected, items[0].Notification.NotificationType)
	assert.Equal(t, "Transfer Request Rejected", items[0].Notification.Title)
	assert.Contains(t, items[0].Notification.Message, "Source store is short too")

	other, err := f.service.GetUserNotifications(context.Background(), recipient(common.RoleStoreManager), false, 0)
	require.NoError(t, err)
	assert.Empty(t, other)

	req.Status = shared.RequestPending
	_, err = triggers.NotifyRequestReviewed(context.Background(), req)
	assert.Error(t, err)
}

func TestTriggers_ReviewRetiresPendingAlert(t *testing.T) {
	f := newFixture(t)
	triggers := newTestTriggers(f, &fakeStaff{}, &fakeInventory{})
	headManager := recipient(common.RoleHeadManager)
	req := shared.StockRequest{
		ID: uuid.New(), Kind: shared.RequestKindRestock, Status: shared.RequestPending,
		ProductName: "Teff", Quantity: 20, Priority: "medium",
		Store:       shared.StoreRef{Name: "Bole"},
		RequestedBy: shared.UserRef{ID: uuid.New(), Name: "Meron"},
	}
	otherReq := req
	otherReq.ID = uuid.New()

	for _, r := range []shared.StockRequest{req, otherReq} {
		ok, err := triggers.NotifyRestockRequestCreated(context.Background(), r)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 2, f.unreadCount(t, headManager))

	f.clock.Advance(time.Minute)
	req.Status = shared.RequestApproved
	_, err := triggers.NotifyRequestReviewed(context.Background(), req)
	require.NoError(t, err)

	items, err := f.service.GetUserNotifications(context.Background(), headManager, true, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, otherReq.ID.String(), *items[0].Notification.RelatedObjectID)

	var retired Notification
	require.NoError(t, f.db.Where("related_object_id = ? AND notification_type = ?", req.ID.String(), PendingRestockRequest).First(&retired).Error)
	assert.False(t, retired.IsActive)
}

func TestTriggers_RequestPriorityIsInherited(t *testing.T) {
	f := newFixture(t)
	triggers := newTestTriggers(f, &fakeStaff{}, &fakeInventory{})
	req := shared.StockRequest{
		ID: uuid.New(), Kind: shared.RequestKindTransfer, Status: shared.RequestPending,
		ProductName: "Salt", Quantity: 2, Priority: "low",
		Store: shared.StoreRef{Name: "Hawassa"}, FromStore: &shared.StoreRef{Name: "Bole"},
		RequestedBy: shared.UserRef{ID: uuid.New(), Name: "Kebede"},
	}

	ok, err := triggers.NotifyTransferRequestCreated(context.Background(), req)
	require.NoError(t, err)
	require.True(t, ok)

	var n Notification
	require.NoError(t, f.db.Where("notification_type = ?", PendingTransferRequest).First(&n).Error)
	assert.Equal(t, PriorityLow, n.Priority)
	assert.Contains(t, n.Message, "from Bole to Hawassa")
}
