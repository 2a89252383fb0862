package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidAdjustmentType indicates an adjustment type other than increase/decrease
	ErrInvalidAdjustmentType = errors.New("inventory: adjustment type must be increase or decrease")
	// ErrInvalidAdjustmentQuantity indicates a quantity outside 1..MaxQuantity
	ErrInvalidAdjustmentQuantity = errors.New("inventory: adjustment quantity must be between 1 and 2147483647")
	// ErrQuantityOverflow indicates an increase that would exceed MaxQuantity
	ErrQuantityOverflow = errors.New("inventory: adjusted quantity exceeds 2147483647")
)

// InventoryNotFoundError is returned when an adjustment targets a
// product-marketplace pair that has no inventory row.
type InventoryNotFoundError struct {
	ProductID     uuid.UUID
	MarketplaceID uuid.UUID
}

func (e *InventoryNotFoundError) Error() string {
	return fmt.Sprintf("inventory: no inventory for product %s on marketplace %s", e.ProductID, e.MarketplaceID)
}

// InsufficientStockError is returned when a decrease would drive the
// quantity below zero.
type InsufficientStockError struct {
	ProductID     uuid.UUID
	MarketplaceID uuid.UUID
	Available     int
	Requested     int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}
