package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its natural key
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// Upsert creates the product if its SKU is unknown, otherwise updates the
	// mutable fields of the stored row. It reports whether a row was created.
	Upsert(ctx context.Context, product *Product) (*Product, bool, error)

	// CountBySKU counts rows with the given SKU
	CountBySKU(ctx context.Context, sku string) (int64, error)
}
