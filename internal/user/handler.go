// File: internal/user/handler.go
package user

import (
	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, staffAdminMW, adminMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.GET("/me", h.getMe)
		userGroup.GET("", staffAdminMW, h.listUsers)
		userGroup.POST("", adminMW, h.createUser)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		h.logger.Error("User ID not found in context for /me", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}
	usr, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", shared.ToUserResponse(usr))
}

func (h *Handler) listUsers(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	role := common.Role(c.Query("role"))

	users, pagination, err := h.service.ListUsers(c.Request.Context(), role, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	out := make([]shared.UserResponse, len(users))
	for i := range users {
		out[i] = shared.ToUserResponse(&users[i])
	}
	common.RespondPaginated(c, "Users retrieved successfully.", out, pagination)
}

func (h *Handler) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create user: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User created successfully.", shared.ToUserResponse(usr))
}
