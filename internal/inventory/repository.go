package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the data access methods for stores, stock and stock requests.
type Repository interface {
	CreateStore(ctx context.Context, store *Store) error
	FindStoreByID(ctx context.Context, id uuid.UUID) (*Store, error)
	SetStoreManager(ctx context.Context, storeID uuid.UUID, managerID *uuid.UUID) error
	FindStoresWithoutManager(ctx context.Context) ([]Store, error)

	CreateProduct(ctx context.Context, product *Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*Product, error)

	CreateStock(ctx context.Context, stock *Stock) error
	// FindStockByID loads the row with its store and product.
	FindStockByID(ctx context.Context, id uuid.UUID) (*Stock, error)
	UpdateStock(ctx context.Context, stock *Stock) error
	FindLowStock(ctx context.Context) ([]Stock, error)

	CreateRestockRequest(ctx context.Context, req *RestockRequest) error
	CreateTransferRequest(ctx context.Context, req *TransferRequest) error
	// ReviewRequest moves a pending request to status. It returns NotFound when the request
	// is missing and Conflict when it was already reviewed.
	ReviewRequest(ctx context.Context, kind shared.RequestKind, id uuid.UUID, status shared.RequestStatus, reviewerID uuid.UUID, notes string, at time.Time) error
	// LoadRequest and FindRequests return the read model with product, store and requester resolved.
	LoadRequest(ctx context.Context, kind shared.RequestKind, id uuid.UUID) (shared.StockRequest, error)
	FindRequests(ctx context.Context, kind shared.RequestKind, status shared.RequestStatus) ([]shared.StockRequest, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM inventory repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
		strings.Contains(err.Error(), "Duplicate entry")
}

func (r *gormRepository) CreateStore(ctx context.Context, store *Store) error {
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails(fmt.Sprintf("Store with slug '%s' already exists.", store.Slug))
		}
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

func (r *gormRepository) FindStoreByID(ctx context.Context, id uuid.UUID) (*Store, error) {
	var store Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Store not found.")
		}
		return nil, fmt.Errorf("failed to find store %s: %w", id, err)
	}
	return &store, nil
}

func (r *gormRepository) SetStoreManager(ctx context.Context, storeID uuid.UUID, managerID *uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&Store{}).
		Where("id = ?", storeID).
		Updates(map[string]interface{}{"manager_id": managerID, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to set manager of store %s: %w", storeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Store not found.")
	}
	return nil
}

func (r *gormRepository) FindStoresWithoutManager(ctx context.Context) ([]Store, error) {
	var stores []Store
	err := r.db.WithContext(ctx).Where("manager_id IS NULL").Order("created_at ASC").Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("finding stores without manager: %w", err)
	}
	return stores, nil
}

func (r *gormRepository) CreateProduct(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails(fmt.Sprintf("Product with SKU '%s' already exists.", product.SKU))
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *gormRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Product not found.")
		}
		return nil, fmt.Errorf("failed to find product %s: %w", id, err)
	}
	return &product, nil
}

func (r *gormRepository) CreateStock(ctx context.Context, stock *Stock) error {
	if err := r.db.WithContext(ctx).Omit("Store", "Product").Create(stock).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict.WithDetails("Stock for this product already exists in the store.")
		}
		return fmt.Errorf("failed to create stock: %w", err)
	}
	return nil
}

func (r *gormRepository) FindStockByID(ctx context.Context, id uuid.UUID) (*Stock, error) {
	var stock Stock
	err := r.db.WithContext(ctx).Preload("Store").Preload("Product").Where("id = ?", id).First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Stock not found.")
		}
		return nil, fmt.Errorf("failed to find stock %s: %w", id, err)
	}
	return &stock, nil
}

func (r *gormRepository) UpdateStock(ctx context.Context, stock *Stock) error {
	err := r.db.WithContext(ctx).Model(&Stock{}).
		Where("id = ?", stock.ID).
		Updates(map[string]interface{}{
			"quantity":            stock.Quantity,
			"low_stock_threshold": stock.LowStockThreshold,
			"updated_at":          time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update stock %s: %w", stock.ID, err)
	}
	return nil
}

func (r *gormRepository) FindLowStock(ctx context.Context) ([]Stock, error) {
	var stocks []Stock
	err := r.db.WithContext(ctx).
		Preload("Store").Preload("Product").
		Where("quantity <= low_stock_threshold").
		Order("quantity ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, fmt.Errorf("finding low stock: %w", err)
	}
	return stocks, nil
}

func (r *gormRepository) CreateRestockRequest(ctx context.Context, req *RestockRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create restock request: %w", err)
	}
	return nil
}

func (r *gormRepository) CreateTransferRequest(ctx context.Context, req *TransferRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create transfer request: %w", err)
	}
	return nil
}

func requestModel(kind shared.RequestKind) (interface{}, error) {
	switch kind {
	case shared.RequestKindRestock:
		return &RestockRequest{}, nil
	case shared.RequestKindTransfer:
		return &TransferRequest{}, nil
	}
	return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown request kind %q.", kind))
}

func (r *gormRepository) ReviewRequest(ctx context.Context, kind shared.RequestKind, id uuid.UUID, status shared.RequestStatus, reviewerID uuid.UUID, notes string, at time.Time) error {
	model, err := requestModel(kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current struct{ Status shared.RequestStatus }
		err := tx.Model(model).Select("status").Where("id = ?", id).Take(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound.WithDetails("Request not found.")
			}
			return fmt.Errorf("failed to load %s request %s: %w", kind, id, err)
		}
		if current.Status != shared.RequestPending {
			return common.ErrConflict.WithDetails(fmt.Sprintf("Request was already %s.", current.Status))
		}

		result := tx.Model(model).
			Where("id = ? AND status = ?", id, shared.RequestPending).
			Updates(map[string]interface{}{
				"status":         status,
				"reviewed_by_id": reviewerID,
				"reviewed_at":    at,
				"review_notes":   notes,
				"updated_at":     at,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to review %s request %s: %w", kind, id, result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrConflict.WithDetails("Request was reviewed concurrently.")
		}
		return nil
	})
}

// requestRow is the flattened join of a request with its product, stores and requester.
type requestRow struct {
	ID            uuid.UUID
	Status        shared.RequestStatus
	Quantity      int
	Priority      string
	ReviewNotes   string
	RequestedByID uuid.UUID
	ProductName   string
	StoreID       uuid.UUID
	StoreName     string
	StoreSlug     string
	FromStoreID   *uuid.UUID
	FromStoreName *string
	FromStoreSlug *string
	FirstName     *string
	LastName      *string
	Email         *string
}

func (row requestRow) toShared(kind shared.RequestKind) shared.StockRequest {
	out := shared.StockRequest{
		ID:          row.ID,
		Kind:        kind,
		Status:      row.Status,
		ProductName: row.ProductName,
		Quantity:    row.Quantity,
		Priority:    row.Priority,
		Store:       shared.StoreRef{ID: row.StoreID, Name: row.StoreName, Slug: row.StoreSlug},
		RequestedBy: shared.UserRef{ID: row.RequestedByID, Name: requesterName(row)},
		ReviewNotes: row.ReviewNotes,
	}
	if row.Email != nil {
		out.RequestedBy.Email = *row.Email
	}
	if row.FromStoreID != nil {
		from := shared.StoreRef{ID: *row.FromStoreID}
		if row.FromStoreName != nil {
			from.Name = *row.FromStoreName
		}
		if row.FromStoreSlug != nil {
			from.Slug = *row.FromStoreSlug
		}
		out.FromStore = &from
	}
	return out
}

func requesterName(row requestRow) string {
	var parts []string
	for _, p := range []*string{row.FirstName, row.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if row.Email != nil && *row.Email != "" {
		return *row.Email
	}
	return "A staff member"
}

// requestQuery joins against the users table owned by the user package.
func (r *gormRepository) requestQuery(ctx context.Context, kind shared.RequestKind) (*gorm.DB, error) {
	const columns = "r.id, r.status, r.quantity, r.priority, r.review_notes, r.requested_by_id, " +
		"p.name AS product_name, s.id AS store_id, s.name AS store_name, s.slug AS store_slug, " +
		"u.first_name, u.last_name, u.email"

	switch kind {
	case shared.RequestKindRestock:
		return r.db.WithContext(ctx).Table("restock_requests AS r").
			Select(columns).
			Joins("JOIN products p ON p.id = r.product_id").
			Joins("JOIN stores s ON s.id = r.store_id").
			Joins("LEFT JOIN users u ON u.id = r.requested_by_id"), nil
	case shared.RequestKindTransfer:
		return r.db.WithContext(ctx).Table("transfer_requests AS r").
			Select(columns+", fs.id AS from_store_id, fs.name AS from_store_name, fs.slug AS from_store_slug").
			Joins("JOIN products p ON p.id = r.product_id").
			Joins("JOIN stores s ON s.id = r.to_store_id").
			Joins("JOIN stores fs ON fs.id = r.from_store_id").
			Joins("LEFT JOIN users u ON u.id = r.requested_by_id"), nil
	}
	return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown request kind %q.", kind))
}

func (r *gormRepository) LoadRequest(ctx context.Context, kind shared.RequestKind, id uuid.UUID) (shared.StockRequest, error) {
	query, err := r.requestQuery(ctx, kind)
	if err != nil {
		return shared.StockRequest{}, err
	}
	var rows []requestRow
	if err := query.Where("r.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return shared.StockRequest{}, fmt.Errorf("failed to load %s request %s: %w", kind, id, err)
	}
	if len(rows) == 0 {
		return shared.StockRequest{}, common.ErrNotFound.WithDetails("Request not found.")
	}
	return rows[0].toShared(kind), nil
}

func (r *gormRepository) FindRequests(ctx context.Context, kind shared.RequestKind, status shared.RequestStatus) ([]shared.StockRequest, error) {
	query, err := r.requestQuery(ctx, kind)
	if err != nil {
		return nil, err
	}
	var rows []requestRow
	if err := query.Where("r.status = ?", status).Order("r.created_at ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("finding %s %s requests: %w", status, kind, err)
	}
	out := make([]shared.StockRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].toShared(kind)
	}
	return out, nil
}
