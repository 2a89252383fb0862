package inventory

import (
	"time"

	"github.com/google/uuid"
)

// AdjustmentType is the direction of a stock adjustment
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "increase"
	AdjustmentDecrease AdjustmentType = "decrease"
)

// IsValid reports whether the adjustment type is known
func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentIncrease || t == AdjustmentDecrease
}

// Sign returns +1 for increases and -1 for decreases
func (t AdjustmentType) Sign() int {
	if t == AdjustmentDecrease {
		return -1
	}
	return 1
}

// StockAdjustment is an immutable audit record of one applied quantity delta.
// Rows are append-only and never updated.
type StockAdjustment struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	MarketplaceID    uuid.UUID
	Type             AdjustmentType
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
	Reason           string
	Actor            string
	CreatedAt        time.Time
}

// Delta returns the signed quantity change
func (a *StockAdjustment) Delta() int {
	return a.Type.Sign() * a.Quantity
}

func newStockAdjustment(inv *Inventory, adjType AdjustmentType, quantity, previous int, reason, actor string) *StockAdjustment {
	return &StockAdjustment{
		ID:               uuid.New(),
		ProductID:        inv.ProductID,
		MarketplaceID:    inv.MarketplaceID,
		Type:             adjType,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      inv.Quantity,
		Reason:           reason,
		Actor:            actor,
		CreatedAt:        time.Now().UTC(),
	}
}
