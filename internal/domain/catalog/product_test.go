package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct(" SKU-001 ", "Test Product", decimal.NewFromFloat(19.99))
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, "SKU-001", product.SKU)
		assert.Equal(t, "Test Product", product.Name)
		assert.True(t, product.Price.Equal(decimal.NewFromFloat(19.99)))
		assert.True(t, product.Cost.IsZero())
		assert.Equal(t, ProductStatusActive, product.Status)
		assert.NotEmpty(t, product.ID)
	})

	t.Run("fails with empty sku", func(t *testing.T) {
		_, err := NewProduct("", "Test Product", decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKU cannot be empty")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct("SKU-1", "   ", decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with non-positive price", func(t *testing.T) {
		_, err := NewProduct("SKU-1", "Name", decimal.Zero)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "price must be positive")
	})
}

func TestProduct_ApplyChanges(t *testing.T) {
	product, err := NewProduct("SKU-1", "Name", decimal.NewFromInt(10))
	require.NoError(t, err)

	t.Run("identical values are a no-op", func(t *testing.T) {
		before := product.UpdatedAt
		changed := product.ApplyChanges("Name", "", decimal.NewFromInt(10), decimal.Zero, ProductStatusActive)
		assert.False(t, changed)
		assert.Equal(t, before, product.UpdatedAt)
	})

	t.Run("different price is applied", func(t *testing.T) {
		changed := product.ApplyChanges("Name", "desc", decimal.NewFromInt(12), decimal.NewFromInt(5), ProductStatusInactive)
		assert.True(t, changed)
		assert.True(t, product.Price.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, "desc", product.Description)
		assert.Equal(t, ProductStatusInactive, product.Status)
	})
}

func TestProductStatus_IsValid(t *testing.T) {
	assert.True(t, ProductStatusActive.IsValid())
	assert.True(t, ProductStatusDiscontinued.IsValid())
	assert.False(t, ProductStatus("archived").IsValid())
}
