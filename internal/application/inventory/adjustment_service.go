package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/domain/shared"
)

var commandValidator = validator.New()

// Adjustment result labels reported to the AdjustmentRecorder
const (
	adjustmentSuccess  = "success"
	adjustmentRejected = "rejected"
	adjustmentFailure  = "failure"
)

// InventoryPusher sends a local quantity to the owning marketplace. It
// reports false when pushing is disabled for that marketplace.
type InventoryPusher interface {
	PushInventory(ctx context.Context, marketplaceID uuid.UUID, sku string, quantity int) (bool, error)
}

// AdjustmentRecorder observes stock adjustment requests
type AdjustmentRecorder interface {
	ObserveAdjustment(adjType inventory.AdjustmentType, result string)
}

type noopAdjustmentRecorder struct{}

func (noopAdjustmentRecorder) ObserveAdjustment(inventory.AdjustmentType, string) {}

// StockAdjustmentService applies manual stock corrections with an audit trail
type StockAdjustmentService struct {
	inventoryRepo inventory.InventoryRepository
	productRepo   catalog.ProductRepository
	pusher        InventoryPusher
	metrics       AdjustmentRecorder
	logger        *zap.Logger
}

// NewStockAdjustmentService creates a new StockAdjustmentService.
// pusher may be nil to disable marketplace pushes.
func NewStockAdjustmentService(
	inventoryRepo inventory.InventoryRepository,
	productRepo catalog.ProductRepository,
	pusher InventoryPusher,
	metrics AdjustmentRecorder,
	logger *zap.Logger,
) *StockAdjustmentService {
	if metrics == nil {
		metrics = noopAdjustmentRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAdjustmentService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		pusher:        pusher,
		metrics:       metrics,
		logger:        logger.Named("stock_adjustment"),
	}
}

// AdjustStock applies one increase or decrease under a row lock and appends
// exactly one audit record. A decrease beyond the current quantity fails
// with *inventory.InsufficientStockError and writes nothing; a missing
// inventory row fails with *inventory.InventoryNotFoundError.
func (s *StockAdjustmentService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (*AdjustStockResult, error) {
	if err := validateCommand(cmd); err != nil {
		s.metrics.ObserveAdjustment(cmd.Type, adjustmentRejected)
		return nil, err
	}

	inv, adj, err := s.inventoryRepo.AdjustWithLock(ctx, cmd.ProductID, cmd.MarketplaceID,
		func(inv *inventory.Inventory) (*inventory.StockAdjustment, error) {
			return inv.Adjust(cmd.Type, cmd.Quantity, cmd.Reason, cmd.Actor)
		})
	if err != nil {
		s.metrics.ObserveAdjustment(cmd.Type, adjustmentOutcome(err))
		s.logger.Warn("Stock adjustment rejected",
			zap.String("product_id", cmd.ProductID.String()),
			zap.String("marketplace_id", cmd.MarketplaceID.String()),
			zap.String("type", string(cmd.Type)),
			zap.Int("quantity", cmd.Quantity),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.ObserveAdjustment(cmd.Type, adjustmentSuccess)

	s.logger.Info("Stock adjusted",
		zap.String("product_id", cmd.ProductID.String()),
		zap.String("marketplace_id", cmd.MarketplaceID.String()),
		zap.String("type", string(cmd.Type)),
		zap.Int("previous_quantity", adj.PreviousQuantity),
		zap.Int("new_quantity", adj.NewQuantity),
		zap.String("actor", cmd.Actor),
	)

	result := &AdjustStockResult{
		Success:          true,
		AdjustmentID:     adj.ID,
		PreviousQuantity: adj.PreviousQuantity,
		NewQuantity:      inv.Quantity,
		Status:           inv.Status,
	}
	result.Pushed = s.push(ctx, cmd.ProductID, cmd.MarketplaceID, inv.Quantity)
	return result, nil
}

// push forwards the committed quantity to the marketplace. Failures are
// logged only; the adjustment stays committed.
func (s *StockAdjustmentService) push(ctx context.Context, productID, marketplaceID uuid.UUID, quantity int) bool {
	if s.pusher == nil {
		return false
	}
	logger := s.logger.With(
		zap.String("product_id", productID.String()),
		zap.String("marketplace_id", marketplaceID.String()),
	)

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		logger.Warn("Skipping inventory push, product lookup failed", zap.Error(err))
		return false
	}
	pushed, err := s.pusher.PushInventory(ctx, marketplaceID, product.SKU, quantity)
	if err != nil {
		logger.Warn("Inventory push to marketplace failed", zap.String("sku", product.SKU), zap.Error(err))
		return false
	}
	return pushed
}

func validateCommand(cmd AdjustStockCommand) error {
	err := commandValidator.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Type":
			return inventory.ErrInvalidAdjustmentType
		case "Quantity":
			return inventory.ErrInvalidAdjustmentQuantity
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
}

func adjustmentOutcome(err error) string {
	var (
		insufficient *inventory.InsufficientStockError
		notFound     *inventory.InventoryNotFoundError
	)
	if errors.As(err, &insufficient) || errors.As(err, &notFound) || errors.Is(err, inventory.ErrQuantityOverflow) {
		return adjustmentRejected
	}
	return adjustmentFailure
}
