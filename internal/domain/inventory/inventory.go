package inventory

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invsync/backend/internal/domain/shared"
)

// MaxQuantity is the largest quantity the inventory column can hold
const MaxQuantity = math.MaxInt32

// DefaultLowStockThreshold is the quantity at or below which stock is low
const DefaultLowStockThreshold = 10

// Status is the stock level classification derived from quantity
type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusLowStock   Status = "low_stock"
	StatusOutOfStock Status = "out_of_stock"
)

// DeriveStatus classifies a quantity against a threshold:
// above the threshold is in stock, 1..threshold is low, zero is out.
func DeriveStatus(quantity, threshold int) Status {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Inventory is the stock level of one product on one marketplace.
// The composite identifier is ProductID + MarketplaceID.
type Inventory struct {
	shared.BaseEntity
	ProductID         uuid.UUID
	MarketplaceID     uuid.UUID
	Quantity          int
	Price             decimal.Decimal
	LowStockThreshold int
	Status            Status
}

// NewInventory creates an inventory row for a product-marketplace pair
func NewInventory(productID, marketplaceID uuid.UUID, quantity int, price decimal.Decimal, threshold int) (*Inventory, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if marketplaceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MARKETPLACE", "Marketplace ID cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	return &Inventory{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		MarketplaceID:     marketplaceID,
		Quantity:          quantity,
		Price:             price,
		LowStockThreshold: threshold,
		Status:            DeriveStatus(quantity, threshold),
	}, nil
}

// SetLevel overwrites quantity and price from a marketplace snapshot and
// recomputes the status.
func (i *Inventory) SetLevel(quantity int, price decimal.Decimal) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	i.Quantity = quantity
	i.Price = price
	i.RefreshStatus()
	i.Touch()
	return nil
}

// RefreshStatus recomputes Status from the current quantity
func (i *Inventory) RefreshStatus() {
	if i.LowStockThreshold <= 0 {
		i.LowStockThreshold = DefaultLowStockThreshold
	}
	i.Status = DeriveStatus(i.Quantity, i.LowStockThreshold)
}

// Adjust applies a stock adjustment and returns the audit record describing it.
// A decrease larger than the current quantity fails with InsufficientStockError
// and an increase past MaxQuantity with ErrQuantityOverflow; either leaves the
// inventory untouched.
func (i *Inventory) Adjust(adjType AdjustmentType, quantity int, reason, actor string) (*StockAdjustment, error) {
	if !adjType.IsValid() {
		return nil, ErrInvalidAdjustmentType
	}
	if quantity <= 0 || quantity > MaxQuantity {
		return nil, ErrInvalidAdjustmentQuantity
	}

	previous := i.Quantity
	if adjType == AdjustmentIncrease && previous > MaxQuantity-quantity {
		return nil, ErrQuantityOverflow
	}
	next := previous + adjType.Sign()*quantity
	if next < 0 {
		return nil, &InsufficientStockError{
			ProductID:     i.ProductID,
			MarketplaceID: i.MarketplaceID,
			Available:     previous,
			Requested:     quantity,
		}
	}

	i.Quantity = next
	i.RefreshStatus()
	i.Touch()

	return newStockAdjustment(i, adjType, quantity, previous, reason, actor), nil
}
