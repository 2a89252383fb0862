package inventory

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		threshold int
		want      Status
	}{
		{"zero is out of stock", 0, 10, StatusOutOfStock},
		{"one is low stock", 1, 10, StatusLowStock},
		{"threshold itself is low stock", 10, 10, StatusLowStock},
		{"above threshold is in stock", 11, 10, StatusInStock},
		{"custom threshold", 4, 3, StatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.quantity, tt.threshold))
		})
	}
}

func TestNewInventory(t *testing.T) {
	productID := uuid.New()
	marketplaceID := uuid.New()

	t.Run("defaults threshold and derives status", func(t *testing.T) {
		inv, err := NewInventory(productID, marketplaceID, 5, decimal.NewFromInt(3), 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultLowStockThreshold, inv.LowStockThreshold)
		assert.Equal(t, StatusLowStock, inv.Status)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewInventory(productID, marketplaceID, -1, decimal.Zero, 10)
		require.Error(t, err)
	})

	t.Run("rejects empty ids", func(t *testing.T) {
		_, err := NewInventory(uuid.Nil, marketplaceID, 1, decimal.Zero, 10)
		require.Error(t, err)
		_, err = NewInventory(productID, uuid.Nil, 1, decimal.Zero, 10)
		require.Error(t, err)
	})
}

func TestInventory_Adjust(t *testing.T) {
	newInv := func(t *testing.T, qty int) *Inventory {
		inv, err := NewInventory(uuid.New(), uuid.New(), qty, decimal.NewFromInt(1), 10)
		require.NoError(t, err)
		return inv
	}

	t.Run("increase adds quantity and records audit", func(t *testing.T) {
		inv := newInv(t, 5)
		adj, err := inv.Adjust(AdjustmentIncrease, 7, "restock", "alice")
		require.NoError(t, err)

		assert.Equal(t, 12, inv.Quantity)
		assert.Equal(t, StatusInStock, inv.Status)
		assert.Equal(t, 5, adj.PreviousQuantity)
		assert.Equal(t, 12, adj.NewQuantity)
		assert.Equal(t, 7, adj.Delta())
		assert.Equal(t, "restock", adj.Reason)
		assert.Equal(t, inv.ProductID, adj.ProductID)
	})

	t.Run("decrease to zero is allowed", func(t *testing.T) {
		inv := newInv(t, 3)
		adj, err := inv.Adjust(AdjustmentDecrease, 3, "sold", "")
		require.NoError(t, err)
		assert.Equal(t, 0, inv.Quantity)
		assert.Equal(t, StatusOutOfStock, inv.Status)
		assert.Equal(t, -3, adj.Delta())
	})

	t.Run("decrease beyond stock is rejected without mutation", func(t *testing.T) {
		inv := newInv(t, 2)
		adj, err := inv.Adjust(AdjustmentDecrease, 5, "oversell", "")
		require.Error(t, err)
		assert.Nil(t, adj)

		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 2, insufficient.Available)
		assert.Equal(t, 5, insufficient.Requested)
		assert.Equal(t, 2, inv.Quantity)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		inv := newInv(t, 2)
		_, err := inv.Adjust(AdjustmentType("set"), 1, "", "")
		assert.ErrorIs(t, err, ErrInvalidAdjustmentType)
		_, err = inv.Adjust(AdjustmentIncrease, 0, "", "")
		assert.ErrorIs(t, err, ErrInvalidAdjustmentQuantity)
		_, err = inv.Adjust(AdjustmentIncrease, math.MaxInt64, "", "")
		assert.ErrorIs(t, err, ErrInvalidAdjustmentQuantity)
		_, err = inv.Adjust(AdjustmentDecrease, math.MaxInt32+1, "", "")
		assert.ErrorIs(t, err, ErrInvalidAdjustmentQuantity)
		assert.Equal(t, 2, inv.Quantity)
	})

	t.Run("increase past the column maximum is rejected without mutation", func(t *testing.T) {
		inv := newInv(t, 5)
		adj, err := inv.Adjust(AdjustmentIncrease, MaxQuantity-4, "", "")
		require.ErrorIs(t, err, ErrQuantityOverflow)
		assert.Nil(t, adj)
		assert.Equal(t, 5, inv.Quantity)

		adj, err = inv.Adjust(AdjustmentIncrease, MaxQuantity-5, "", "")
		require.NoError(t, err)
		assert.Equal(t, MaxQuantity, adj.NewQuantity)
	})
}
