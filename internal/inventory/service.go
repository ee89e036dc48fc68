package inventory

import (
	"context"
	"fmt"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Notifier turns inventory events into notifications. Failures are logged by the
// service and never fail the inventory operation itself.
type Notifier interface {
	NotifyRestockRequestCreated(ctx context.Context, req shared.StockRequest) (bool, error)
	NotifyTransferRequestCreated(ctx context.Context, req shared.StockRequest) (bool, error)
	NotifyRequestReviewed(ctx context.Context, req shared.StockRequest) (bool, error)
	CheckStockItem(ctx context.Context, item shared.LowStockItem) (bool, error)
}

// Service defines the interface for inventory business logic.
type Service interface {
	CreateStore(ctx context.Context, req CreateStoreRequest) (*Store, error)
	AssignManager(ctx context.Context, storeID uuid.UUID, managerID *uuid.UUID) (*Store, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	CreateStock(ctx context.Context, req CreateStockRequest) (*Stock, error)
	AdjustStock(ctx context.Context, stockID uuid.UUID, req AdjustStockRequest) (*Stock, error)

	CreateRestockRequest(ctx context.Context, requesterID uuid.UUID, req CreateRestockRequest) (shared.StockRequest, error)
	CreateTransferRequest(ctx context.Context, requesterID uuid.UUID, req CreateTransferRequest) (shared.StockRequest, error)
	ReviewRequest(ctx context.Context, kind shared.RequestKind, id, reviewerID uuid.UUID, req ReviewRequest) (shared.StockRequest, error)
	ListRequests(ctx context.Context, kind shared.RequestKind, status shared.RequestStatus) ([]shared.StockRequest, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new inventory service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		logger:   logger.Named("InventoryService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateStore(ctx context.Context, req CreateStoreRequest) (*Store, error) {
	store := &Store{
		Name:      req.Name,
		Slug:      slug.Make(req.Name),
		Address:   req.Address,
		ManagerID: req.ManagerID,
	}
	if store.Slug == "" {
		return nil, common.ErrBadRequest.WithDetails("Store name must contain letters or digits.")
	}
	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, err
	}
	s.logger.Info("Store created", zap.String("storeID", store.ID.String()), zap.String("slug", store.Slug))
	return store, nil
}

func (s *service) AssignManager(ctx context.Context, storeID uuid.UUID, managerID *uuid.UUID) (*Store, error) {
	if managerID != nil && *managerID == uuid.Nil {
		managerID = nil
	}
	if err := s.repo.SetStoreManager(ctx, storeID, managerID); err != nil {
		return nil, err
	}
	return s.repo.FindStoreByID(ctx, storeID)
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	product := &Product{Name: req.Name, SKU: req.SKU, Unit: req.Unit}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// CreateStock registers a product at a store and raises a stock alert if it starts low.
func (s *service) CreateStock(ctx context.Context, req CreateStockRequest) (*Stock, error) {
	if _, err := s.repo.FindStoreByID(ctx, req.StoreID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindProductByID(ctx, req.ProductID); err != nil {
		return nil, err
	}
	stock := &Stock{
		StoreID:           req.StoreID,
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
	}
	if err := s.repo.CreateStock(ctx, stock); err != nil {
		return nil, err
	}
	loaded, err := s.repo.FindStockByID(ctx, stock.ID)
	if err != nil {
		return nil, err
	}
	s.checkStock(ctx, loaded)
	return loaded, nil
}

// AdjustStock sets the counted quantity (and optionally the threshold) of a stock row.
func (s *service) AdjustStock(ctx context.Context, stockID uuid.UUID, req AdjustStockRequest) (*Stock, error) {
	stock, err := s.repo.FindStockByID(ctx, stockID)
	if err != nil {
		return nil, err
	}
	stock.Quantity = req.Quantity
	if req.LowStockThreshold != nil {
		stock.LowStockThreshold = *req.LowStockThreshold
	}
	if err := s.repo.UpdateStock(ctx, stock); err != nil {
		return nil, err
	}
	s.checkStock(ctx, stock)
	return stock, nil
}

func (s *service) CreateRestockRequest(ctx context.Context, requesterID uuid.UUID, req CreateRestockRequest) (shared.StockRequest, error) {
	if requesterID == uuid.Nil {
		return shared.StockRequest{}, common.ErrUnauthorized.WithDetails("User identity is required.")
	}
	if _, err := s.repo.FindStoreByID(ctx, req.StoreID); err != nil {
		return shared.StockRequest{}, err
	}
	if _, err := s.repo.FindProductByID(ctx, req.ProductID); err != nil {
		return shared.StockRequest{}, err
	}

	model := &RestockRequest{
		StoreID:       req.StoreID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Priority:      defaultPriority(req.Priority),
		Status:        shared.RequestPending,
		RequestedByID: requesterID,
	}
	if err := s.repo.CreateRestockRequest(ctx, model); err != nil {
		s.logger.Error("Failed to create restock request", zap.Error(err))
		return shared.StockRequest{}, err
	}
	created, err := s.repo.LoadRequest(ctx, shared.RequestKindRestock, model.ID)
	if err != nil {
		return shared.StockRequest{}, err
	}
	if s.notifier != nil {
		if _, err := s.notifier.NotifyRestockRequestCreated(ctx, created); err != nil {
			s.logger.Warn("Could not notify about restock request", zap.String("requestID", created.ID.String()), zap.Error(err))
		}
	}
	return created, nil
}

func (s *service) CreateTransferRequest(ctx context.Context, requesterID uuid.UUID, req CreateTransferRequest) (shared.StockRequest, error) {
	if requesterID == uuid.Nil {
		return shared.StockRequest{}, common.ErrUnauthorized.WithDetails("User identity is required.")
	}
	if req.FromStoreID == req.ToStoreID {
		return shared.StockRequest{}, common.ErrBadRequest.WithDetails("Source and destination stores must differ.")
	}
	for _, id := range []uuid.UUID{req.FromStoreID, req.ToStoreID} {
		if _, err := s.repo.FindStoreByID(ctx, id); err != nil {
			return shared.StockRequest{}, err
		}
	}
	if _, err := s.repo.FindProductByID(ctx, req.ProductID); err != nil {
		return shared.StockRequest{}, err
	}

	model := &TransferRequest{
		FromStoreID:   req.FromStoreID,
		ToStoreID:     req.ToStoreID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Priority:      defaultPriority(req.Priority),
		Status:        shared.RequestPending,
		RequestedByID: requesterID,
	}
	if err := s.repo.CreateTransferRequest(ctx, model); err != nil {
		s.logger.Error("Failed to create transfer request", zap.Error(err))
		return shared.StockRequest{}, err
	}
	created, err := s.repo.LoadRequest(ctx, shared.RequestKindTransfer, model.ID)
	if err != nil {
		return shared.StockRequest{}, err
	}
	if s.notifier != nil {
		if _, err := s.notifier.NotifyTransferRequestCreated(ctx, created); err != nil {
			s.logger.Warn("Could not notify about transfer request", zap.String("requestID", created.ID.String()), zap.Error(err))
		}
	}
	return created, nil
}

// ReviewRequest approves or rejects a pending request and tells the requester.
func (s *service) ReviewRequest(ctx context.Context, kind shared.RequestKind, id, reviewerID uuid.UUID, req ReviewRequest) (shared.StockRequest, error) {
	status := shared.RequestRejected
	if req.Approve {
		status = shared.RequestApproved
	}
	if err := s.repo.ReviewRequest(ctx, kind, id, status, reviewerID, req.Notes, s.now()); err != nil {
		return shared.StockRequest{}, err
	}
	reviewed, err := s.repo.LoadRequest(ctx, kind, id)
	if err != nil {
		return shared.StockRequest{}, err
	}
	s.logger.Info("Request reviewed",
		zap.String("kind", string(kind)),
		zap.String("requestID", id.String()),
		zap.String("status", string(status)))

	if s.notifier != nil {
		if _, err := s.notifier.NotifyRequestReviewed(ctx, reviewed); err != nil {
			s.logger.Warn("Could not notify requester", zap.String("requestID", id.String()), zap.Error(err))
		}
	}
	return reviewed, nil
}

func (s *service) ListRequests(ctx context.Context, kind shared.RequestKind, status shared.RequestStatus) ([]shared.StockRequest, error) {
	switch status {
	case shared.RequestPending, shared.RequestApproved, shared.RequestRejected:
	default:
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown request status %q.", status))
	}
	return s.repo.FindRequests(ctx, kind, status)
}

func (s *service) checkStock(ctx context.Context, stock *Stock) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.CheckStockItem(ctx, stock.LowStockItem()); err != nil {
		s.logger.Warn("Could not raise stock alert", zap.String("stockID", stock.ID.String()), zap.Error(err))
	}
}

func defaultPriority(p string) string {
	if p == "" {
		return "medium"
	}
	return p
}
