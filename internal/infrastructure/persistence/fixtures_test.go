package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/domain/trade"
)

func createTestMarketplace(t *testing.T, db *gorm.DB, name string) *integration.Marketplace {
	t.Helper()
	settings, err := integration.NewTaobaoSettings(integration.TaobaoCredentials{
		AppKey:    "app-key",
		AppSecret: "app-secret",
		BaseURL:   "https://gw.taobao.example",
	}, integration.ChannelOptions{PageSize: 50})
	require.NoError(t, err)

	m, err := integration.NewMarketplace(name, settings)
	require.NoError(t, err)
	require.NoError(t, NewGormMarketplaceRepository(db).Create(context.Background(), m))
	return m
}

func createTestProduct(t *testing.T, db *gorm.DB, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, decimal.NewFromInt(10))
	require.NoError(t, err)
	stored, _, err := NewGormProductRepository(db).Upsert(context.Background(), p)
	require.NoError(t, err)
	return stored
}

func createTestInventory(t *testing.T, db *gorm.DB, productID, marketplaceID uuid.UUID, quantity int) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.NewInventory(productID, marketplaceID, quantity, decimal.NewFromInt(10), 0)
	require.NoError(t, err)
	stored, _, err := NewGormInventoryRepository(db).Upsert(context.Background(), inv)
	require.NoError(t, err)
	return stored
}

func createTestOrder(t *testing.T, db *gorm.DB, marketplaceID uuid.UUID, number string) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder(marketplaceID, number)
	require.NoError(t, err)
	require.NoError(t, order.AddItem(nil, "SKU-1", "Mug", 2, decimal.NewFromInt(5), decimal.Zero))
	order.TotalAmount = order.ItemsTotal()
	require.NoError(t, NewGormOrderRepository(db).CreateWithItems(context.Background(), order))
	return order
}
