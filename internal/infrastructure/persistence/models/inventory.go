package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invsync/backend/internal/domain/inventory"
)

// InventoryModel is the persistence model for the Inventory entity.
type InventoryModel struct {
	BaseModel
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_marketplace,priority:1"`
	MarketplaceID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_marketplace,priority:2;index"`
	Quantity          int              `gorm:"not null;default:0;check:chk_inventory_quantity,quantity >= 0"`
	Price             decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	LowStockThreshold int              `gorm:"not null;default:10"`
	Status            inventory.Status `gorm:"type:varchar(20);not null;default:'out_of_stock'"`
}

// TableName returns the table name for GORM
func (InventoryModel) TableName() string {
	return "inventory"
}

// ToDomain converts the persistence model to a domain Inventory entity.
func (m *InventoryModel) ToDomain() *inventory.Inventory {
	return &inventory.Inventory{
		BaseEntity:        m.BaseModel.ToDomain(),
		ProductID:         m.ProductID,
		MarketplaceID:     m.MarketplaceID,
		Quantity:          m.Quantity,
		Price:             m.Price,
		LowStockThreshold: m.LowStockThreshold,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Inventory entity.
func (m *InventoryModel) FromDomain(i *inventory.Inventory) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ProductID = i.ProductID
	m.MarketplaceID = i.MarketplaceID
	m.Quantity = i.Quantity
	m.Price = i.Price
	m.LowStockThreshold = i.LowStockThreshold
	m.Status = i.Status
}

// InventoryModelFromDomain creates a new persistence model from a domain Inventory entity.
func InventoryModelFromDomain(i *inventory.Inventory) *InventoryModel {
	m := &InventoryModel{}
	m.FromDomain(i)
	return m
}

// StockAdjustmentModel is the persistence model for the append-only
// StockAdjustment audit record. It has no UpdatedAt column.
type StockAdjustmentModel struct {
	ID               uuid.UUID                `gorm:"type:uuid;primary_key"`
	ProductID        uuid.UUID                `gorm:"type:uuid;not null;index:idx_stock_adjustments_pair,priority:1"`
	MarketplaceID    uuid.UUID                `gorm:"type:uuid;not null;index:idx_stock_adjustments_pair,priority:2"`
	AdjustmentType   inventory.AdjustmentType `gorm:"type:varchar(20);not null"`
	Quantity         int                      `gorm:"not null"`
	PreviousQuantity int                      `gorm:"not null"`
	NewQuantity      int                      `gorm:"not null"`
	Reason           string                   `gorm:"type:text"`
	Actor            string                   `gorm:"type:varchar(100)"`
	CreatedAt        time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockAdjustmentModel) TableName() string {
	return "stock_adjustments"
}

// ToDomain converts the persistence model to a domain StockAdjustment.
func (m *StockAdjustmentModel) ToDomain() *inventory.StockAdjustment {
	return &inventory.StockAdjustment{
		ID:               m.ID,
		ProductID:        m.ProductID,
		MarketplaceID:    m.MarketplaceID,
		Type:             m.AdjustmentType,
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		Actor:            m.Actor,
		CreatedAt:        m.CreatedAt,
	}
}

// StockAdjustmentModelFromDomain creates a new persistence model from a domain StockAdjustment.
func StockAdjustmentModelFromDomain(a *inventory.StockAdjustment) *StockAdjustmentModel {
	return &StockAdjustmentModel{
		ID:               a.ID,
		ProductID:        a.ProductID,
		MarketplaceID:    a.MarketplaceID,
		AdjustmentType:   a.Type,
		Quantity:         a.Quantity,
		PreviousQuantity: a.PreviousQuantity,
		NewQuantity:      a.NewQuantity,
		Reason:           a.Reason,
		Actor:            a.Actor,
		CreatedAt:        a.CreatedAt,
	}
}
