package inventory

import (
	"context"
	"testing"

	"ezm_trade_backend/internal/platform/database/testutil"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockNotifier is a mock type for Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRestockRequestCreated(ctx context.Context, req shared.StockRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotifier) NotifyTransferRequestCreated(ctx context.Context, req shared.StockRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotifier) NotifyRequestReviewed(ctx context.Context, req shared.StockRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotifier) CheckStockItem(ctx context.Context, item shared.LowStockItem) (bool, error) {
	args := m.Called(ctx, item)
	return args.Bool(0), args.Error(1)
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.MustOpenTestDB(t, Models()...)
	// Minimal stand-in for the user-owned table.
	require.NoError(t, db.Exec(
		"CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT, first_name TEXT, last_name TEXT)").Error)
	return db
}

func addUser(t *testing.T, db *gorm.DB, first, last, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec("INSERT INTO users (id, email, first_name, last_name) VALUES (?, ?, ?, ?)",
		id.String(), email, first, last).Error)
	return id
}

// seed holds a small catalogue: two stores (one managed) and one product.
type seed struct {
	repo      Repository
	managerID uuid.UUID
	bole      *Store
	piassa    *Store
	teff      *Product
}

func newSeed(t *testing.T, db *gorm.DB) seed {
	t.Helper()
	ctx := context.Background()
	repo := NewGORMRepository(db)
	s := seed{repo: repo, managerID: addUser(t, db, "Meron", "Alemu", "meron@ezm.et")}

	s.bole = &Store{Name: "Bole Branch", Slug: "bole-branch", ManagerID: &s.managerID}
	require.NoError(t, repo.CreateStore(ctx, s.bole))
	s.piassa = &Store{Name: "Piassa Branch", Slug: "piassa-branch"}
	require.NoError(t, repo.CreateStore(ctx, s.piassa))
	s.teff = &Product{Name: "Teff Flour 5kg", SKU: "TEFF-5"}
	require.NoError(t, repo.CreateProduct(ctx, s.teff))
	return s
}
