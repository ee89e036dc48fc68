package inventory

import (
	"context"
	"testing"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_StoresWithoutManager(t *testing.T) {
	s := newSeed(t, openDB(t))
	reader := NewReader(s.repo)

	stores, err := reader.FindStoresWithoutManager(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, shared.StoreRef{ID: s.piassa.ID, Name: "Piassa Branch", Slug: "piassa-branch"}, stores[0])

	require.NoError(t, s.repo.SetStoreManager(context.Background(), s.piassa.ID, &s.managerID))
	stores, err = reader.FindStoresWithoutManager(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestReader_LowStockIsThresholdInclusive(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := newSeed(t, db)
	oil := &Product{Name: "Sunflower Oil 3L", SKU: "OIL-3"}
	require.NoError(t, s.repo.CreateProduct(ctx, oil))
	sugar := &Product{Name: "Sugar 1kg", SKU: "SUG-1"}
	require.NoError(t, s.repo.CreateProduct(ctx, sugar))

	atThreshold := &Stock{StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 10, LowStockThreshold: 10}
	healthy := &Stock{StoreID: s.bole.ID, ProductID: oil.ID, Quantity: 11, LowStockThreshold: 10}
	empty := &Stock{StoreID: s.piassa.ID, ProductID: sugar.ID, Quantity: 0, LowStockThreshold: 3}
	for _, st := range []*Stock{atThreshold, healthy, empty} {
		require.NoError(t, s.repo.CreateStock(ctx, st))
	}

	items, err := NewReader(s.repo).FindLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Emptiest first.
	assert.Equal(t, empty.ID, items[0].StockID)
	assert.Equal(t, "Sugar 1kg", items[0].ProductName)
	assert.Nil(t, items[0].ManagerID)

	assert.Equal(t, atThreshold.ID, items[1].StockID)
	assert.Equal(t, "bole-branch", items[1].Store.Slug)
	require.NotNil(t, items[1].ManagerID)
	assert.Equal(t, s.managerID, *items[1].ManagerID)
}

func TestRepository_DuplicateStockConflicts(t *testing.T) {
	ctx := context.Background()
	s := newSeed(t, openDB(t))

	require.NoError(t, s.repo.CreateStock(ctx, &Stock{StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 4}))
	err := s.repo.CreateStock(ctx, &Stock{StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 9})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRepository_PendingRequestsResolveNames(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := newSeed(t, db)
	ghost := uuid.New()

	restock := &RestockRequest{
		StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 40, Priority: "urgent",
		Status: shared.RequestPending, RequestedByID: s.managerID,
	}
	require.NoError(t, s.repo.CreateRestockRequest(ctx, restock))
	transfer := &TransferRequest{
		FromStoreID: s.piassa.ID, ToStoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 12, Priority: "low",
		Status: shared.RequestPending, RequestedByID: ghost,
	}
	require.NoError(t, s.repo.CreateTransferRequest(ctx, transfer))

	reader := NewReader(s.repo)
	restocks, err := reader.FindPendingRequests(ctx, shared.RequestKindRestock)
	require.NoError(t, err)
	require.Len(t, restocks, 1)
	got := restocks[0]
	assert.Equal(t, restock.ID, got.ID)
	assert.Equal(t, shared.RequestKindRestock, got.Kind)
	assert.Equal(t, "Teff Flour 5kg", got.ProductName)
	assert.Equal(t, "Bole Branch", got.Store.Name)
	assert.Equal(t, "Meron Alemu", got.RequestedBy.Name)
	assert.Equal(t, "meron@ezm.et", got.RequestedBy.Email)
	assert.Equal(t, "urgent", got.Priority)
	assert.Nil(t, got.FromStore)

	transfers, err := reader.FindPendingRequests(ctx, shared.RequestKindTransfer)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.NotNil(t, transfers[0].FromStore)
	assert.Equal(t, "Piassa Branch", transfers[0].FromStore.Name)
	assert.Equal(t, "Bole Branch", transfers[0].Store.Name)
	// Requester without a user row still gets a readable name.
	assert.Equal(t, "A staff member", transfers[0].RequestedBy.Name)
	assert.Equal(t, ghost, transfers[0].RequestedBy.ID)
}

func TestRepository_ReviewRequestOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := newSeed(t, openDB(t))
	req := &RestockRequest{
		StoreID: s.bole.ID, ProductID: s.teff.ID, Quantity: 5, Priority: "medium",
		Status: shared.RequestPending, RequestedByID: s.managerID,
	}
	require.NoError(t, s.repo.CreateRestockRequest(ctx, req))
	reviewer := uuid.New()
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.repo.ReviewRequest(ctx, shared.RequestKindRestock, req.ID, shared.RequestRejected, reviewer, "Budget freeze", at))
	err := s.repo.ReviewRequest(ctx, shared.RequestKindRestock, req.ID, shared.RequestApproved, reviewer, "", at)
	assert.ErrorIs(t, err, common.ErrConflict)

	loaded, err := s.repo.LoadRequest(ctx, shared.RequestKindRestock, req.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.RequestRejected, loaded.Status)
	assert.Equal(t, "Budget freeze", loaded.ReviewNotes)

	pending, err := s.repo.FindRequests(ctx, shared.RequestKindRestock, shared.RequestPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = s.repo.ReviewRequest(ctx, shared.RequestKindTransfer, uuid.New(), shared.RequestApproved, reviewer, "", at)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.repo.LoadRequest(ctx, shared.RequestKindTransfer, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
