package inventory

import (
	"github.com/google/uuid"

	"github.com/invsync/backend/internal/domain/inventory"
)

// AdjustStockCommand requests a manual stock correction
type AdjustStockCommand struct {
	ProductID     uuid.UUID                `validate:"required"`
	MarketplaceID uuid.UUID                `validate:"required"`
	Type          inventory.AdjustmentType `validate:"oneof=increase decrease"`
	Quantity      int                      `validate:"gt=0,lte=2147483647"`
	Reason        string                   `validate:"max=500"`
	Actor         string                   `validate:"max=100"`
}

// AdjustStockResult reports the committed stock level
type AdjustStockResult struct {
	Success          bool             `json:"success"`
	AdjustmentID     uuid.UUID        `json:"adjustment_id"`
	PreviousQuantity int              `json:"previous_quantity"`
	NewQuantity      int              `json:"new_quantity"`
	Status           inventory.Status `json:"status"`
	Pushed           bool             `json:"pushed"`
}
