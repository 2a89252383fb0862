package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/persistence/models"
)

// GormInventoryRepository implements InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByProductAndMarketplace finds inventory by its composite key
func (r *GormInventoryRepository) FindByProductAndMarketplace(ctx context.Context, productID, marketplaceID uuid.UUID) (*inventory.Inventory, error) {
	var model models.InventoryModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND marketplace_id = ?", productID, marketplaceID).
		First(&model).Error; err != nil {
		return nil, dbError("inventory.find", err)
	}
	return model.ToDomain(), nil
}

// Upsert creates or overwrites the row for inv's composite key. The status
// is always recomputed from the stored quantity and threshold.
func (r *GormInventoryRepository) Upsert(ctx context.Context, inv *inventory.Inventory) (*inventory.Inventory, bool, error) {
	stored, created, err := r.upsert(ctx, inv)
	if errors.Is(err, shared.ErrAlreadyExists) {
		stored, created, err = r.upsert(ctx, inv)
	}
	return stored, created, err
}

func (r *GormInventoryRepository) upsert(ctx context.Context, inv *inventory.Inventory) (*inventory.Inventory, bool, error) {
	var (
		stored  *inventory.Inventory
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.InventoryModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND marketplace_id = ?", inv.ProductID, inv.MarketplaceID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := *inv
			fresh.RefreshStatus()
			model := models.InventoryModelFromDomain(&fresh)
			if err := tx.Create(model).Error; err != nil {
				return err
			}
			stored, created = model.ToDomain(), true
			return nil
		}
		if err != nil {
			return err
		}

		current := existing.ToDomain()
		if inv.LowStockThreshold > 0 {
			current.LowStockThreshold = inv.LowStockThreshold
		}
		if err := current.SetLevel(inv.Quantity, inv.Price); err != nil {
			return err
		}
		if err := tx.Model(&models.InventoryModel{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"quantity":            current.Quantity,
				"price":               current.Price,
				"low_stock_threshold": current.LowStockThreshold,
				"status":              current.Status,
				"updated_at":          current.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		stored = current
		return nil
	})
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, false, err
		}
		return nil, false, dbError("inventory.upsert", err)
	}
	return stored, created, nil
}

// AdjustWithLock loads the row with SELECT ... FOR UPDATE, applies fn and
// writes the new level together with the audit record in one transaction.
// Errors returned by fn, and *inventory.InventoryNotFoundError, are passed
// through unchanged; every other failure is a *shared.PersistenceError.
func (r *GormInventoryRepository) AdjustWithLock(ctx context.Context, productID, marketplaceID uuid.UUID, fn inventory.AdjustFunc) (*inventory.Inventory, *inventory.StockAdjustment, error) {
	var (
		result    *inventory.Inventory
		audit     *inventory.StockAdjustment
		domainErr error
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.InventoryModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND marketplace_id = ?", productID, marketplaceID).
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			domainErr = &inventory.InventoryNotFoundError{ProductID: productID, MarketplaceID: marketplaceID}
			return domainErr
		}
		if err != nil {
			return err
		}

		inv := model.ToDomain()
		adj, err := fn(inv)
		if err != nil {
			domainErr = err
			return err
		}

		if err := tx.Model(&models.InventoryModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]any{
				"quantity":   inv.Quantity,
				"status":     inv.Status,
				"updated_at": inv.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		if adj != nil {
			if err := tx.Create(models.StockAdjustmentModelFromDomain(adj)).Error; err != nil {
				return err
			}
		}

		result, audit = inv, adj
		return nil
	})
	if err != nil {
		if domainErr != nil && errors.Is(err, domainErr) {
			return nil, nil, err
		}
		return nil, nil, dbError("inventory.adjust", err)
	}
	return result, audit, nil
}

// ListAdjustments returns the audit ledger for a pair, oldest first
func (r *GormInventoryRepository) ListAdjustments(ctx context.Context, productID, marketplaceID uuid.UUID) ([]inventory.StockAdjustment, error) {
	var rows []models.StockAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND marketplace_id = ?", productID, marketplaceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, dbError("inventory.list_adjustments", err)
	}

	adjustments := make([]inventory.StockAdjustment, len(rows))
	for i := range rows {
		adjustments[i] = *rows[i].ToDomain()
	}
	return adjustments, nil
}

// Ensure GormInventoryRepository implements InventoryRepository
var _ inventory.InventoryRepository = (*GormInventoryRepository)(nil)
