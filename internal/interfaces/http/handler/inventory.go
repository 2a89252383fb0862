package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinventory "github.com/invsync/backend/internal/application/inventory"
	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/interfaces/http/dto"
	"github.com/invsync/backend/internal/interfaces/http/middleware"
)

// StockAdjuster applies manual stock corrections
type StockAdjuster interface {
	AdjustStock(ctx context.Context, cmd appinventory.AdjustStockCommand) (*appinventory.AdjustStockResult, error)
}

// InventoryHandler handles inventory endpoints
type InventoryHandler struct {
	BaseHandler
	adjuster StockAdjuster
}

// NewInventoryHandler creates an InventoryHandler
func NewInventoryHandler(adjuster StockAdjuster) *InventoryHandler {
	return &InventoryHandler{adjuster: adjuster}
}

// Adjust increases or decreases the stock of one product on one marketplace.
// POST /api/v1/inventory/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	// binding already checked both ids are UUIDs
	productID := uuid.MustParse(req.ProductID)
	marketplaceID := uuid.MustParse(req.MarketplaceID)

	var actor string
	if claims := middleware.GetJWTClaims(c); claims != nil {
		actor = claims.Actor()
	}

	result, err := h.adjuster.AdjustStock(c.Request.Context(), appinventory.AdjustStockCommand{
		ProductID:     productID,
		MarketplaceID: marketplaceID,
		Type:          inventory.AdjustmentType(req.Type),
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		Actor:         actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
