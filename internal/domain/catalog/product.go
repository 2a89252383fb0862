package catalog

import (
	"strings"

	"github.com/invsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// IsValid reports whether the status belongs to the local vocabulary
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDiscontinued:
		return true
	}
	return false
}

// Product represents a catalog entry identified by its SKU.
// Products are created or updated by product sync and never deleted by it.
type Product struct {
	shared.BaseEntity
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Status      ProductStatus
}

// NewProduct creates a new product
func NewProduct(sku, name string, price decimal.Decimal) (*Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price must be positive")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        sku,
		Name:       name,
		Price:      price,
		Cost:       decimal.Zero,
		Status:     ProductStatusActive,
	}, nil
}

// ApplyChanges overwrites the mutable fields. It reports whether anything
// actually changed so callers can skip no-op writes.
func (p *Product) ApplyChanges(name, description string, price, cost decimal.Decimal, status ProductStatus) bool {
	changed := p.Name != name ||
		p.Description != description ||
		!p.Price.Equal(price) ||
		!p.Cost.Equal(cost) ||
		p.Status != status
	if !changed {
		return false
	}

	p.Name = name
	p.Description = description
	p.Price = price
	p.Cost = cost
	p.Status = status
	p.Touch()
	return true
}
