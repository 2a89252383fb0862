package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/persistence/models"
)

// GormMarketplaceRepository implements MarketplaceRepository using GORM
type GormMarketplaceRepository struct {
	db *gorm.DB
}

// NewGormMarketplaceRepository creates a new GormMarketplaceRepository
func NewGormMarketplaceRepository(db *gorm.DB) *GormMarketplaceRepository {
	return &GormMarketplaceRepository{db: db}
}

// Create inserts a new marketplace
func (r *GormMarketplaceRepository) Create(ctx context.Context, m *integration.Marketplace) error {
	model, err := models.MarketplaceModelFromDomain(m)
	if err != nil {
		return err
	}
	return dbError("marketplace.create", r.db.WithContext(ctx).Create(model).Error)
}

// FindByID finds a marketplace by ID
func (r *GormMarketplaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Marketplace, error) {
	var model models.MarketplaceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, dbError("marketplace.find_by_id", err)
	}
	return model.ToDomain()
}

// FindActive returns all active marketplaces, oldest first
func (r *GormMarketplaceRepository) FindActive(ctx context.Context) ([]integration.Marketplace, error) {
	var rows []models.MarketplaceModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", integration.MarketplaceStatusActive).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, dbError("marketplace.find_active", err)
	}

	marketplaces := make([]integration.Marketplace, 0, len(rows))
	for i := range rows {
		m, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		marketplaces = append(marketplaces, *m)
	}
	return marketplaces, nil
}

// UpdateLastSync moves the sync watermark
func (r *GormMarketplaceRepository) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, "marketplace.update_last_sync", id, map[string]any{
		"last_sync":  at.UTC(),
		"updated_at": time.Now().UTC(),
	})
}

// UpdateStatus sets the connection status
func (r *GormMarketplaceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status integration.MarketplaceStatus) error {
	return r.update(ctx, "marketplace.update_status", id, map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}

func (r *GormMarketplaceRepository) update(ctx context.Context, op string, id uuid.UUID, values map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.MarketplaceModel{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return dbError(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the marketplace with its stock adjustments, inventory,
// order items and orders. Either everything is removed or nothing is.
func (r *GormMarketplaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("marketplace_id = ?", id).Delete(&models.StockAdjustmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("marketplace_id = ?", id).Delete(&models.InventoryModel{}).Error; err != nil {
			return err
		}
		orderIDs := tx.Model(&models.OrderModel{}).Select("id").Where("marketplace_id = ?", id)
		if err := tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("marketplace_id = ?", id).Delete(&models.OrderModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.MarketplaceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return dbError("marketplace.delete", err)
}

// Ensure GormMarketplaceRepository implements MarketplaceRepository
var _ integration.MarketplaceRepository = (*GormMarketplaceRepository)(nil)
