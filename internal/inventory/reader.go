package inventory

import (
	"context"

	"ezm_trade_backend/internal/shared"
)

// Reader exposes inventory queries to the notification triggers.
type Reader struct {
	repo Repository
}

var _ shared.InventoryReader = (*Reader)(nil)

// NewReader creates a Reader over the inventory repository.
func NewReader(repo Repository) *Reader {
	return &Reader{repo: repo}
}

// FindStoresWithoutManager implements shared.InventoryReader.
func (r *Reader) FindStoresWithoutManager(ctx context.Context) ([]shared.StoreRef, error) {
	stores, err := r.repo.FindStoresWithoutManager(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]shared.StoreRef, len(stores))
	for i := range stores {
		refs[i] = stores[i].Ref()
	}
	return refs, nil
}

// FindLowStock implements shared.InventoryReader.
func (r *Reader) FindLowStock(ctx context.Context) ([]shared.LowStockItem, error) {
	stocks, err := r.repo.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]shared.LowStockItem, len(stocks))
	for i := range stocks {
		items[i] = stocks[i].LowStockItem()
	}
	return items, nil
}

// FindPendingRequests implements shared.InventoryReader.
func (r *Reader) FindPendingRequests(ctx context.Context, kind shared.RequestKind) ([]shared.StockRequest, error) {
	return r.repo.FindRequests(ctx, kind, shared.RequestPending)
}
