package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invsync/backend/internal/domain/trade"
	"github.com/invsync/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// ExistsByNumber reports whether the marketplace already has the order
func (r *GormOrderRepository) ExistsByNumber(ctx context.Context, marketplaceID uuid.UUID, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("marketplace_id = ? AND order_number = ?", marketplaceID, orderNumber).
		Count(&count).Error; err != nil {
		return false, dbError("order.exists", err)
	}
	return count > 0, nil
}

// CreateWithItems inserts the order and its items in one transaction.
// A duplicate order number yields an error matching shared.ErrAlreadyExists.
func (r *GormOrderRepository) CreateWithItems(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	return dbError("order.create", err)
}

// FindByNumber loads an order with its items
func (r *GormOrderRepository) FindByNumber(ctx context.Context, marketplaceID uuid.UUID, orderNumber string) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("marketplace_id = ? AND order_number = ?", marketplaceID, orderNumber).
		First(&model).Error; err != nil {
		return nil, dbError("order.find_by_number", err)
	}
	return model.ToDomain(), nil
}

// CountByMarketplace counts orders imported for a marketplace
func (r *GormOrderRepository) CountByMarketplace(ctx context.Context, marketplaceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("marketplace_id = ?", marketplaceID).
		Count(&count).Error; err != nil {
		return 0, dbError("order.count", err)
	}
	return count, nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
