package inventory

import (
	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for inventory handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new inventory handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("InventoryHandler"),
	}
}

// RegisterRoutes sets up the inventory routes.
//
//   - staffMW: any store staff (cashiers included), for stock counts
//   - managerMW: store managers and above, for raising requests
//   - privilegedMW: admins and head managers
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, staffMW, managerMW, privilegedMW gin.HandlerFunc) {
	group := router.Group("/inventory")
	group.Use(authMW)
	{
		group.POST("/stores", privilegedMW, h.createStore)
		group.PUT("/stores/:id/manager", privilegedMW, h.assignManager)
		group.POST("/products", privilegedMW, h.createProduct)

		group.POST("/stock", managerMW, h.createStock)
		group.PATCH("/stock/:id", staffMW, h.adjustStock)

		group.GET("/requests/:kind", managerMW, h.listRequests)
		group.POST("/restock-requests", managerMW, h.createRestockRequest)
		group.POST("/transfer-requests", managerMW, h.createTransferRequest)
		group.POST("/requests/:kind/:id/review", privilegedMW, h.reviewRequest)
	}
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid "+what+" ID format."))
		return uuid.Nil, false
	}
	return id, true
}

func parseKind(c *gin.Context) (shared.RequestKind, bool) {
	kind := shared.RequestKind(c.Param("kind"))
	switch kind {
	case shared.RequestKindRestock, shared.RequestKindTransfer:
		return kind, true
	}
	common.RespondWithError(c, common.ErrNotFound.WithDetails("Unknown request kind."))
	return "", false
}

func (h *Handler) createStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	store, err := h.service.CreateStore(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Store created successfully.", store)
}

func (h *Handler) assignManager(c *gin.Context) {
	id, ok := parseID(c, "store")
	if !ok {
		return
	}
	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	store, err := h.service.AssignManager(c.Request.Context(), id, req.ManagerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Store manager updated.", store)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	product, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Product created successfully.", product)
}

func (h *Handler) createStock(c *gin.Context) {
	var req CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	stock, err := h.service.CreateStock(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Stock created successfully.", stock)
}

func (h *Handler) adjustStock(c *gin.Context) {
	id, ok := parseID(c, "stock")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	stock, err := h.service.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Stock updated.", stock)
}

func (h *Handler) listRequests(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	status := shared.RequestStatus(c.DefaultQuery("status", string(shared.RequestPending)))
	requests, err := h.service.ListRequests(c.Request.Context(), kind, status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	out := make([]RequestResponse, len(requests))
	for i := range requests {
		out[i] = ToRequestResponse(requests[i])
	}
	common.RespondOK(c, "Requests retrieved successfully.", out)
}

func (h *Handler) createRestockRequest(c *gin.Context) {
	var req CreateRestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	created, err := h.service.CreateRestockRequest(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Restock request submitted.", ToRequestResponse(created))
}

func (h *Handler) createTransferRequest(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	created, err := h.service.CreateTransferRequest(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Transfer request submitted.", ToRequestResponse(created))
}

func (h *Handler) reviewRequest(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "request")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	reviewed, err := h.service.ReviewRequest(c.Request.Context(), kind, id, common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Request reviewed.", ToRequestResponse(reviewed))
}
