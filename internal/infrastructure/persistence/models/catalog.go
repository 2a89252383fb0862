package models

import (
	"github.com/shopspring/decimal"

	"github.com/invsync/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	SKU         string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_sku"`
	Name        string                `gorm:"type:varchar(255);not null"`
	Description string                `gorm:"type:text"`
	Price       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Cost        decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status      catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Cost:        m.Cost,
		Status:      m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Cost = p.Cost
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
