package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/platform/database/testutil"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		NotificationDefaultLimit:      50,
		NotificationMaxLimit:          200,
		LowStockHighPriorityThreshold: 5,
		LowStockAlertExpiryHours:      48,
	}
}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingForwarder struct {
	mu     sync.Mutex
	titles []string
}

func (f *recordingForwarder) Forward(title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
}

func (f *recordingForwarder) Titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...)
}

type fixture struct {
	db        *gorm.DB
	repo      Repository
	service   *ServiceImplementation
	clock     *testClock
	forwarder *recordingForwarder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.MustOpenTestDB(t, Models()...)
	repo := NewGORMRepository(db)
	clock := newTestClock()
	fwd := &recordingForwarder{}
	return &fixture{
		db:        db,
		repo:      repo,
		service:   newService(repo, fwd, testConfig(), zap.NewNop(), clock.Now),
		clock:     clock,
		forwarder: fwd,
	}
}

// create persists a notification through the service and moves the clock forward so
// creation times are distinct.
func (f *fixture) create(t *testing.T, input CreateNotificationInput) *Notification {
	t.Helper()
	if input.Type == "" {
		input.Type = SystemAnnouncement
	}
	if input.Message == "" {
		input.Message = "message"
	}
	n, err := f.service.CreateNotification(context.Background(), input)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return n
}

func (f *fixture) unreadCount(t *testing.T, r Recipient) int {
	t.Helper()
	count, err := f.service.GetUnreadCount(context.Background(), r)
	require.NoError(t, err)
	return count
}

func recipient(role common.Role) Recipient {
	return Recipient{ID: uuid.New(), Role: role}
}

// fakeStaff and fakeInventory serve canned trigger inputs.
type fakeStaff struct {
	managers []shared.UserRef
	err      error
}

func (f *fakeStaff) FindUnassignedStoreManagers(context.Context) ([]shared.UserRef, error) {
	return f.managers, f.err
}

type fakeInventory struct {
	stores   []shared.StoreRef
	low      []shared.LowStockItem
	requests map[shared.RequestKind][]shared.StockRequest
	lowErr   error
}

func (f *fakeInventory) FindStoresWithoutManager(context.Context) ([]shared.StoreRef, error) {
	return f.stores, nil
}

func (f *fakeInventory) FindLowStock(context.Context) ([]shared.LowStockItem, error) {
	return f.low, f.lowErr
}

func (f *fakeInventory) FindPendingRequests(_ context.Context, kind shared.RequestKind) ([]shared.StockRequest, error) {
	return f.requests[kind], nil
}

var (
	errBoom             = errors.New("boom")
	errStockUnavailable = errors.New("stock table unavailable")
)
