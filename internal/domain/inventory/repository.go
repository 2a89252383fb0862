package inventory

import (
	"context"

	"github.com/google/uuid"
)

// AdjustFunc mutates a locked inventory row and returns the audit record to append
type AdjustFunc func(inv *Inventory) (*StockAdjustment, error)

// InventoryRepository defines the interface for inventory persistence
type InventoryRepository interface {
	// FindByProductAndMarketplace finds inventory by its composite key
	FindByProductAndMarketplace(ctx context.Context, productID, marketplaceID uuid.UUID) (*Inventory, error)

	// Upsert creates or updates the row for inv's composite key. Quantity,
	// price and status of an existing row are overwritten.
	Upsert(ctx context.Context, inv *Inventory) (*Inventory, bool, error)

	// AdjustWithLock loads the row under a row lock inside a transaction,
	// applies fn, then writes the new quantity and the returned audit record.
	// Any failure rolls the whole transaction back. A missing row yields
	// *InventoryNotFoundError.
	AdjustWithLock(ctx context.Context, productID, marketplaceID uuid.UUID, fn AdjustFunc) (*Inventory, *StockAdjustment, error)

	// ListAdjustments returns the audit ledger for a pair, oldest first
	ListAdjustments(ctx context.Context, productID, marketplaceID uuid.UUID) ([]StockAdjustment, error)
}
