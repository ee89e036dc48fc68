package inventory

import (
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/google/uuid"
)

// Store is a shop or warehouse location.
type Store struct {
	common.BaseModel
	Name      string     `gorm:"type:varchar(150);not null"`
	Slug      string     `gorm:"type:varchar(160);uniqueIndex;not null"`
	Address   string     `gorm:"type:text"`
	ManagerID *uuid.UUID `gorm:"type:uuid;index"`
}

func (Store) TableName() string {
	return "stores"
}

// Ref returns the short reference used by notification producers.
func (s *Store) Ref() shared.StoreRef {
	return shared.StoreRef{ID: s.ID, Name: s.Name, Slug: s.Slug}
}

// Product is a sellable item.
type Product struct {
	common.BaseModel
	Name string `gorm:"type:varchar(200);not null"`
	SKU  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Unit string `gorm:"type:varchar(32)"`
}

func (Product) TableName() string {
	return "products"
}

// Stock is the quantity of one product held by one store.
type Stock struct {
	common.BaseModel
	StoreID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_store_product,priority:1"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_store_product,priority:2"`
	Quantity          int       `gorm:"not null"`
	LowStockThreshold int       `gorm:"not null"`

	Store   *Store   `gorm:"foreignKey:StoreID"`
	Product *Product `gorm:"foreignKey:ProductID"`
}

func (Stock) TableName() string {
	return "stocks"
}

// LowStockItem converts a stock row with its store and product loaded.
func (s *Stock) LowStockItem() shared.LowStockItem {
	item := shared.LowStockItem{
		StockID:   s.ID,
		Quantity:  s.Quantity,
		Threshold: s.LowStockThreshold,
	}
	if s.Product != nil {
		item.ProductName = s.Product.Name
	}
	if s.Store != nil {
		item.Store = s.Store.Ref()
		item.ManagerID = s.Store.ManagerID
	}
	return item
}

// RestockRequest asks head office for more of a product at a store.
type RestockRequest struct {
	common.BaseModel
	StoreID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID            `gorm:"type:uuid;not null"`
	Quantity      int                  `gorm:"not null"`
	Priority      string               `gorm:"type:varchar(16);not null"`
	Status        shared.RequestStatus `gorm:"type:varchar(16);not null;index"`
	RequestedByID uuid.UUID            `gorm:"type:uuid;not null"`
	ReviewedByID  *uuid.UUID           `gorm:"type:uuid"`
	ReviewedAt    *time.Time
	ReviewNotes   string `gorm:"type:text"`
}

func (RestockRequest) TableName() string {
	return "restock_requests"
}

// TransferRequest asks to move stock between two stores.
type TransferRequest struct {
	common.BaseModel
	FromStoreID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ToStoreID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID            `gorm:"type:uuid;not null"`
	Quantity      int                  `gorm:"not null"`
	Priority      string               `gorm:"type:varchar(16);not null"`
	Status        shared.RequestStatus `gorm:"type:varchar(16);not null;index"`
	RequestedByID uuid.UUID            `gorm:"type:uuid;not null"`
	ReviewedByID  *uuid.UUID           `gorm:"type:uuid"`
	ReviewedAt    *time.Time
	ReviewNotes   string `gorm:"type:text"`
}

func (TransferRequest) TableName() string {
	return "transfer_requests"
}

// Models lists the tables owned by this package, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Store{}, &Product{}, &Stock{}, &RestockRequest{}, &TransferRequest{}}
}

// --- DTOs ---

// CreateStoreRequest is the body for POST /inventory/stores.
type CreateStoreRequest struct {
	Name      string     `json:"name" binding:"required,max=150"`
	Address   string     `json:"address"`
	ManagerID *uuid.UUID `json:"manager_id"`
}

// AssignManagerRequest is the body for PUT /inventory/stores/:id/manager.
// A null manager_id unassigns.
type AssignManagerRequest struct {
	ManagerID *uuid.UUID `json:"manager_id"`
}

// CreateProductRequest is the body for POST /inventory/products.
type CreateProductRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	SKU  string `json:"sku" binding:"required,max=64"`
	Unit string `json:"unit" binding:"omitempty,max=32"`
}

// CreateStockRequest is the body for POST /inventory/stock.
type CreateStockRequest struct {
	StoreID           uuid.UUID `json:"store_id" binding:"required"`
	ProductID         uuid.UUID `json:"product_id" binding:"required"`
	Quantity          int       `json:"quantity" binding:"gte=0"`
	LowStockThreshold int       `json:"low_stock_threshold" binding:"gte=0"`
}

// AdjustStockRequest is the body for PATCH /inventory/stock/:id.
type AdjustStockRequest struct {
	Quantity          int  `json:"quantity" binding:"gte=0"`
	LowStockThreshold *int `json:"low_stock_threshold" binding:"omitempty,gte=0"`
}

// CreateRestockRequest is the body for POST /inventory/restock-requests.
type CreateRestockRequest struct {
	StoreID   uuid.UUID `json:"store_id" binding:"required"`
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gte=1"`
	Priority  string    `json:"priority" binding:"omitempty,oneof=low medium high urgent critical"`
}

// CreateTransferRequest is the body for POST /inventory/transfer-requests.
type CreateTransferRequest struct {
	FromStoreID uuid.UUID `json:"from_store_id" binding:"required"`
	ToStoreID   uuid.UUID `json:"to_store_id" binding:"required"`
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,gte=1"`
	Priority    string    `json:"priority" binding:"omitempty,oneof=low medium high urgent critical"`
}

// ReviewRequest is the body for POST /inventory/requests/:kind/:id/review.
type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes" binding:"max=1000"`
}

// RequestResponse is the API view of a restock or transfer request.
type RequestResponse struct {
	ID          uuid.UUID            `json:"id"`
	Kind        shared.RequestKind   `json:"kind"`
	Status      shared.RequestStatus `json:"status"`
	ProductName string               `json:"product_name"`
	Quantity    int                  `json:"quantity"`
	Priority    string               `json:"priority"`
	StoreName   string               `json:"store_name"`
	FromStore   string               `json:"from_store,omitempty"`
	RequestedBy string               `json:"requested_by"`
	ReviewNotes string               `json:"review_notes,omitempty"`
}

// ToRequestResponse converts the read model to its API shape.
func ToRequestResponse(r shared.StockRequest) RequestResponse {
	resp := RequestResponse{
		ID:          r.ID,
		Kind:        r.Kind,
		Status:      r.Status,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		Priority:    r.Priority,
		StoreName:   r.Store.Name,
		RequestedBy: r.RequestedBy.Name,
		ReviewNotes: r.ReviewNotes,
	}
	if r.FromStore != nil {
		resp.FromStore = r.FromStore.Name
	}
	return resp
}
