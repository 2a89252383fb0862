package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/invsync/backend/internal/domain/trade"
)

// OrderModel is the persistence model for an imported marketplace order.
type OrderModel struct {
	BaseModel
	MarketplaceID   uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_orders_marketplace_number,priority:1"`
	OrderNumber     string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_orders_marketplace_number,priority:2"`
	Status          trade.OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus   trade.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CustomerName    string              `gorm:"type:varchar(200)"`
	CustomerEmail   string              `gorm:"type:varchar(200)"`
	CustomerPhone   string              `gorm:"type:varchar(50)"`
	ShippingAddress datatypes.JSON
	OrderedAt       time.Time        `gorm:"not null;index"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		BaseEntity:    m.BaseModel.ToDomain(),
		MarketplaceID: m.MarketplaceID,
		OrderNumber:   m.OrderNumber,
		Status:        m.Status,
		PaymentStatus: m.PaymentStatus,
		TotalAmount:   m.TotalAmount,
		Customer: trade.Customer{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		OrderedAt: m.OrderedAt,
		Items:     make([]trade.OrderItem, len(m.Items)),
	}
	if len(m.ShippingAddress) > 0 {
		// A malformed address column leaves the address empty
		_ = json.Unmarshal(m.ShippingAddress, &order.ShippingAddress)
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{
		MarketplaceID: o.MarketplaceID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		CustomerPhone: o.Customer.Phone,
		OrderedAt:     o.OrderedAt,
		Items:         make([]OrderItemModel, len(o.Items)),
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	if !o.ShippingAddress.IsEmpty() {
		if raw, err := json.Marshal(o.ShippingAddress); err == nil {
			m.ShippingAddress = datatypes.JSON(raw)
		}
	}
	for i := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&o.Items[i])
	}
	return m
}

// OrderItemModel is the persistence model for an order line. Items are immutable.
type OrderItemModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  *uuid.UUID      `gorm:"type:uuid;index"`
	SKU        string          `gorm:"type:varchar(100);not null"`
	Name       string          `gorm:"type:varchar(255)"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() *trade.OrderItem {
	return &trade.OrderItem{
		ID:         m.ID,
		OrderID:    m.OrderID,
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Name:       m.Name,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		TotalPrice: m.TotalPrice,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem.
func OrderItemModelFromDomain(i *trade.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:         i.ID,
		OrderID:    i.OrderID,
		ProductID:  i.ProductID,
		SKU:        i.SKU,
		Name:       i.Name,
		Quantity:   i.Quantity,
		UnitPrice:  i.UnitPrice,
		TotalPrice: i.TotalPrice,
	}
}
