package inventory

import (
	"context"
	"testing"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateRestockRequest_NotifiesWithResolvedRequest(t *testing.T) {
	db := openDB(t)
	s := newSeed(t, db)
	notifier := new(MockNotifier)
	notifier.On("NotifyRestockRequestCreated", mock.Anything, mock.MatchedBy(func(r shared.StockRequest) bool {
		return r.Kind == shared.RequestKindRestock &&
			r.Status == shared.RequestPending &&
			r.RequestedBy.Name == "Meron Alemu" &&
			r.Store.Slug == "bole-branch" &&
			r.ProductName == "Teff Flour 5kg" &&
			r.Priority == "medium"
	})).Return(true, nil).Once()
	svc := NewService(s.repo, notifier, zap.NewNop())

	created, err := svc.CreateRestockRequest(context.Background(), s.managerID, CreateRestockRequest{
		StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, created.Quantity)
	notifier.AssertExpectations(t)
}

func TestCreateRestockRequest_NotifierFailureIsNotFatal(t *testing.T) {
	s := newSeed(t, openDB(t))
	notifier := new(MockNotifier)
	notifier.On("NotifyRestockRequestCreated", mock.Anything, mock.Anything).Return(false, assert.AnError)
	svc := NewService(s.repo, notifier, zap.NewNop())

	_, err := svc.CreateRestockRequest(context.Background(), s.managerID, CreateRestockRequest{
		StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 1, Priority: "high",
	})
	require.NoError(t, err)

	pending, err := s.repo.FindRequests(context.Background(), shared.RequestKindRestock, shared.RequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCreateRestockRequest_Validation(t *testing.T) {
	s := newSeed(t, openDB(t))
	svc := NewService(s.repo, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateRestockRequest(ctx, uuid.Nil, CreateRestockRequest{StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 1})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.CreateRestockRequest(ctx, s.managerID, CreateRestockRequest{StoreID: uuid.New(), ProductID: s.teff.ID, Quantity: 1})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateTransferRequest(t *testing.T) {
	s := newSeed(t, openDB(t))
	notifier := new(MockNotifier)
	notifier.On("NotifyTransferRequestCreated", mock.Anything, mock.MatchedBy(func(r shared.StockRequest) bool {
		return r.FromStore != nil && r.FromStore.ID == s.piassa.ID && r.Store.ID == s.bole.ID
	})).Return(true, nil).Once()
	svc := NewService(s.repo, notifier, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateTransferRequest(ctx, s.managerID, CreateTransferRequest{
		FromStoreID: s.bole.ID, ToStoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 3,
	})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	created, err := svc.CreateTransferRequest(ctx, s.managerID, CreateTransferRequest{
		FromStoreID: s.piassa.ID, ToStoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 3, Priority: "critical",
	})
	require.NoError(t, err)
	assert.Equal(t, "critical", created.Priority)
	notifier.AssertExpectations(t)
}

func TestReviewRequest_NotifiesRequesterOnce(t *testing.T) {
	s := newSeed(t, openDB(t))
	notifier := new(MockNotifier)
	notifier.On("NotifyRestockRequestCreated", mock.Anything, mock.Anything).Return(true, nil)
	notifier.On("NotifyRequestReviewed", mock.Anything, mock.MatchedBy(func(r shared.StockRequest) bool {
		return r.Status == shared.RequestApproved && r.RequestedBy.ID == s.managerID && r.ReviewNotes == "Ship Monday"
	})).Return(true, nil).Once()
	svc := NewService(s.repo, notifier, zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateRestockRequest(ctx, s.managerID, CreateRestockRequest{
		StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 8,
	})
	require.NoError(t, err)

	reviewer := uuid.New()
	reviewed, err := svc.ReviewRequest(ctx, shared.RequestKindRestock, created.ID, reviewer, ReviewRequest{Approve: true, Notes: "Ship Monday"})
	require.NoError(t, err)
	assert.Equal(t, shared.RequestApproved, reviewed.Status)

	_, err = svc.ReviewRequest(ctx, shared.RequestKindRestock, created.ID, reviewer, ReviewRequest{})
	assert.ErrorIs(t, err, common.ErrConflict)
	notifier.AssertExpectations(t)
}

func TestAdjustStock_ChecksStockLevel(t *testing.T) {
	s := newSeed(t, openDB(t))
	notifier := new(MockNotifier)
	notifier.On("CheckStockItem", mock.Anything, mock.MatchedBy(func(item shared.LowStockItem) bool {
		return item.Quantity == 12
	})).Return(false, nil).Once()
	notifier.On("CheckStockItem", mock.Anything, mock.MatchedBy(func(item shared.LowStockItem) bool {
		return item.Quantity == 2 && item.Threshold == 10 &&
			item.ManagerID != nil && *item.ManagerID == s.managerID &&
			item.Store.Name == "Bole Branch" && item.ProductName == "Teff Flour 5kg"
	})).Return(true, nil).Once()
	svc := NewService(s.repo, notifier, zap.NewNop())
	ctx := context.Background()

	stock, err := svc.CreateStock(ctx, CreateStockRequest{StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 12, LowStockThreshold: 10})
	require.NoError(t, err)

	adjusted, err := svc.AdjustStock(ctx, stock.ID, AdjustStockRequest{Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, adjusted.Quantity)
	assert.Equal(t, 10, adjusted.LowStockThreshold)
	notifier.AssertExpectations(t)

	_, err = svc.AdjustStock(ctx, uuid.New(), AdjustStockRequest{Quantity: 1})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateStore_SlugAndManager(t *testing.T) {
	s := newSeed(t, openDB(t))
	svc := NewService(s.repo, nil, zap.NewNop())
	ctx := context.Background()

	store, err := svc.CreateStore(ctx, CreateStoreRequest{Name: "Merkato Warehouse #2"})
	require.NoError(t, err)
	assert.Equal(t, "merkato-warehouse-2", store.Slug)
	assert.Nil(t, store.ManagerID)

	_, err = svc.CreateStore(ctx, CreateStoreRequest{Name: "Merkato Warehouse 2"})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = svc.CreateStore(ctx, CreateStoreRequest{Name: "!!!"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	updated, err := svc.AssignManager(ctx, store.ID, &s.managerID)
	require.NoError(t, err)
	require.NotNil(t, updated.ManagerID)
	assert.Equal(t, s.managerID, *updated.ManagerID)

	nilID := uuid.Nil
	updated, err = svc.AssignManager(ctx, store.ID, &nilID)
	require.NoError(t, err)
	assert.Nil(t, updated.ManagerID)
}

func TestListRequests_RejectsUnknownStatus(t *testing.T) {
	s := newSeed(t, openDB(t))
	svc := NewService(s.repo, nil, zap.NewNop())

	_, err := svc.ListRequests(context.Background(), shared.RequestKindRestock, "archived")
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
