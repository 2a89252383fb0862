package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, dbError("product.find_by_id", err)
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&model).Error; err != nil {
		return nil, dbError("product.find_by_sku", err)
	}
	return model.ToDomain(), nil
}

// Upsert creates the product when its SKU is unknown, otherwise overwrites
// the mutable fields of the stored row. An identical record leaves the row
// and its updated_at untouched. The row is locked while it is
// compared and written. A concurrent insert of the same SKU loses on the
// unique index and is retried once as an update.
func (r *GormProductRepository) Upsert(ctx context.Context, product *catalog.Product) (*catalog.Product, bool, error) {
	stored, created, err := r.upsert(ctx, product)
	if errors.Is(err, shared.ErrAlreadyExists) {
		stored, created, err = r.upsert(ctx, product)
	}
	return stored, created, err
}

func (r *GormProductRepository) upsert(ctx context.Context, product *catalog.Product) (*catalog.Product, bool, error) {
	var (
		stored  *catalog.Product
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ProductModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("sku = ?", product.SKU).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			model := models.ProductModelFromDomain(product)
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
		stored = current
		if !current.ApplyChanges(product.Name, product.Description, product.Price, product.Cost, product.Status) {
			return nil
		}
		if err := tx.Model(&models.ProductModel{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"name":        current.Name,
				"description": current.Description,
				"price":       current.Price,
				"cost":        current.Cost,
				"status":      current.Status,
				"updated_at":  current.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, dbError("product.upsert", err)
	}
	return stored, created, nil
}

// CountBySKU counts rows with the given SKU
func (r *GormProductRepository) CountBySKU(ctx context.Context, sku string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("sku = ?", sku).
		Count(&count).Error; err != nil {
		return 0, dbError("product.count_by_sku", err)
	}
	return count, nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
