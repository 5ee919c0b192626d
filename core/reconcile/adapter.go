package reconcile

import "context"

// StockSource provides the stock-of-record.
type StockSource interface {
	// FetchStock returns every ERP stock record. It must either return the
	// complete set or an error; a partial set would hide needed updates.
	FetchStock(ctx context.Context) ([]StockRecord, error)
}

// Storefront provides the listings to reconcile and the write used to fix them.
type Storefront interface {
	// FetchVariants returns every variant carrying a SKU, indexed by SKU.
	FetchVariants(ctx context.Context) (*Catalog, error)

	// SetInventory sets the absolute available quantity of an inventory item.
	// It must be idempotent: repeating it with the same quantity has no further effect.
	SetInventory(ctx context.Context, inventoryItemID int64, quantity int) error
}
