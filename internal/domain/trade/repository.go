package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for imported order persistence
type OrderRepository interface {
	// ExistsByNumber reports whether the marketplace already has an order with this number
	ExistsByNumber(ctx context.Context, marketplaceID uuid.UUID, orderNumber string) (bool, error)

	// CreateWithItems inserts the order and all its items in one transaction
	CreateWithItems(ctx context.Context, order *Order) error

	// FindByNumber loads an order with its items
	FindByNumber(ctx context.Context, marketplaceID uuid.UUID, orderNumber string) (*Order, error)

	// CountByMarketplace counts orders imported for a marketplace
	CountByMarketplace(ctx context.Context, marketplaceID uuid.UUID) (int64, error)
}
