package shared

import (
	"context"

	"github.com/google/uuid"
)

// Read models the notification triggers scan. They are filled by the user and inventory
// packages so the notification package does not import either.

// UserRef identifies a staff member.
type UserRef struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// StoreRef identifies a store.
type StoreRef struct {
	ID   uuid.UUID
	Name string
	Slug string
}

// LowStockItem is a stock row at or below its threshold.
type LowStockItem struct {
	StockID     uuid.UUID
	ProductName string
	Store       StoreRef
	Quantity    int
	Threshold   int
	// ManagerID is the store's manager, when one is assigned.
	ManagerID *uuid.UUID
}

// RequestKind distinguishes restock from transfer requests.
type RequestKind string

const (
	RequestKindRestock  RequestKind = "restock"
	RequestKindTransfer RequestKind = "transfer"
)

// RequestStatus is the review state of a restock or transfer request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// StockRequest is a restock or transfer request as seen by notification producers.
type StockRequest struct {
	ID          uuid.UUID
	Kind        RequestKind
	Status      RequestStatus
	ProductName string
	Quantity    int
	Priority    string
	Store       StoreRef
	// FromStore is only set for transfers.
	FromStore   *StoreRef
	RequestedBy UserRef
	ReviewNotes string
}

// StaffDirectory answers the staff questions asked by the triggers.
type StaffDirectory interface {
	FindUnassignedStoreManagers(ctx context.Context) ([]UserRef, error)
}

// InventoryReader answers the inventory questions asked by the triggers.
type InventoryReader interface {
	FindStoresWithoutManager(ctx context.Context) ([]StoreRef, error)
	FindLowStock(ctx context.Context) ([]LowStockItem, error)
	FindPendingRequests(ctx context.Context, kind RequestKind) ([]StockRequest, error)
}
