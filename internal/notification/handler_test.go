package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/middleware"
	"ezm_trade_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// headerAuth stands in for the JWT middleware.
func headerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-Test-User"))
		if err != nil {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		c.Set(common.UserIDKey, id)
		c.Set(common.UserRoleKey, common.Role(c.GetHeader("X-Test-Role")))
		c.Next()
	}
}

type handlerEnv struct {
	f      *fixture
	router *gin.Engine
}

func newHandlerEnv(t *testing.T, triggersPerMinute int) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	inv := &fakeInventory{requests: map[shared.RequestKind][]shared.StockRequest{
		shared.RequestKindTransfer: {{ID: uuid.New(), Kind: shared.RequestKindTransfer, Status: shared.RequestPending, ProductName: "Soap", Quantity: 3, RequestedBy: shared.UserRef{ID: uuid.New()}}},
	}}
	triggers := newTestTriggers(f, &fakeStaff{}, inv)
	h := NewHandler(f.service, triggers, testConfig(), zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api,
		headerAuth(),
		middleware.RoleAuthMiddleware(common.PrivilegedRoles...),
		middleware.NewRateLimiter(triggersPerMinute).Middleware(),
	)
	return &handlerEnv{f: f, router: router}
}

func (e *handlerEnv) do(t *testing.T, method, path string, r Recipient, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", r.ID.String())
	req.Header.Set("X-Test-Role", string(r.Role))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestHandler_ListAndCount(t *testing.T) {
	env := newHandlerEnv(t, 5)
	r := recipient(common.RoleStoreManager)
	env.f.create(t, CreateNotificationInput{Title: "first", TargetRoles: []common.Role{common.RoleStoreManager}})
	second := env.f.create(t, CreateNotificationInput{Title: "second", ActionURL: "/stock", TargetRoles: []common.Role{common.RoleStoreManager}})

	code, body := env.do(t, http.MethodGet, "/api/v1/notifications", r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["unread_count"])
	assert.NotEmpty(t, body["timestamp"])

	items := body["notifications"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, false, first["is_read"])
	assert.Equal(t, false, first["is_dismissed"])
	n := first["notification"].(map[string]interface{})
	assert.Equal(t, second.ID.String(), n["id"])
	assert.Equal(t, "second", n["title"])
	assert.Equal(t, "/stock", n["action_url"])
	assert.Equal(t, "system", n["category"])

	code, body = env.do(t, http.MethodGet, "/api/v1/notifications/count", r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["unread_count"])
}

func TestHandler_MarkReadFlow(t *testing.T) {
	env := newHandlerEnv(t, 5)
	r := recipient(common.RoleCashier)
	n := env.f.create(t, CreateNotificationInput{Title: "shift change", TargetRoles: []common.Role{common.RoleCashier}})
	env.f.create(t, CreateNotificationInput{Title: "till audit", TargetRoles: []common.Role{common.RoleCashier}})

	code, body := env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/mark-read", r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/mark-read", r, nil)
	require.Equal(t, http.StatusOK, code, "marking twice is not an error")

	code, body = env.do(t, http.MethodGet, "/api/v1/notifications/count", r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["unread_count"])

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications/mark-all-read", r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["marked"])

	code, body = env.do(t, http.MethodGet, "/api/v1/notifications?include_read=true", r, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["unread_count"])
	assert.Len(t, body["notifications"], 2)
}

func TestHandler_MarkReadErrors(t *testing.T) {
	env := newHandlerEnv(t, 5)
	r := recipient(common.RoleCashier)

	code, body := env.do(t, http.MethodPost, "/api/v1/notifications/not-a-uuid/mark-read", r, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/mark-read", r, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Notification not found.", body["error"])
}

func TestHandler_Dismiss(t *testing.T) {
	env := newHandlerEnv(t, 5)
	r := recipient(common.RoleSupplier)
	n := env.f.create(t, CreateNotificationInput{Title: "new PO", TargetUsers: []uuid.UUID{r.ID}})

	code, _ := env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/dismiss", r, nil)
	require.Equal(t, http.StatusOK, code)

	_, body := env.do(t, http.MethodGet, "/api/v1/notifications?include_read=true", r, nil)
	assert.Empty(t, body["notifications"])
}

func TestHandler_TriggerCheck(t *testing.T) {
	env := newHandlerEnv(t, 5)

	code, body := env.do(t, http.MethodPost, "/api/v1/notifications/trigger-check", recipient(common.RoleCashier), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, body["success"])

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications/trigger-check", recipient(common.RoleHeadManager), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["pending_restock_requests"])
	assert.Equal(t, float64(1), stats["pending_transfer_requests"])
}

func TestHandler_TriggerCheckIsRateLimited(t *testing.T) {
	env := newHandlerEnv(t, 1)
	admin := recipient(common.RoleAdmin)

	code, _ := env.do(t, http.MethodPost, "/api/v1/notifications/trigger-check", admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/notifications/trigger-check", admin, nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestHandler_CreateAnnouncement(t *testing.T) {
	env := newHandlerEnv(t, 5)
	cashier := recipient(common.RoleCashier)

	req := CreateNotificationRequest{Title: "Inventory count", Message: "Stores close early on Friday.", Priority: "high"}
	code, body := env.do(t, http.MethodPost, "/api/v1/notifications", cashier, req)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications", recipient(common.RoleAdmin), req)
	require.Equal(t, http.StatusCreated, code)
	n := body["notification"].(map[string]interface{})
	assert.Equal(t, string(SystemAnnouncement), n["notification_type"])
	assert.Equal(t, "high", n["priority"])

	items, err := env.f.service.GetUserNotifications(context.Background(), cashier, false, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1, "announcements without an audience go to every role")

	code, body = env.do(t, http.MethodPost, "/api/v1/notifications", recipient(common.RoleAdmin), map[string]string{"message": "no title"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, false, body["success"])
}
