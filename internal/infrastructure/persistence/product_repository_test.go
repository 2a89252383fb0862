package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/persistence/models"
)

func TestGormProductRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("creates an unknown SKU", func(t *testing.T) {
		p, err := catalog.NewProduct("MUG-1", "Mug", decimal.RequireFromString("12.50"))
		require.NoError(t, err)

		stored, created, err := repo.Upsert(ctx, p)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, p.ID, stored.ID)
		assert.Equal(t, "MUG-1", stored.SKU)
	})

	t.Run("updates an existing SKU in place", func(t *testing.T) {
		before, err := repo.FindBySKU(ctx, "MUG-1")
		require.NoError(t, err)

		p, err := catalog.NewProduct("MUG-1", "Large Mug", decimal.RequireFromString("15"))
		require.NoError(t, err)
		p.Description = "Stoneware"
		p.Cost = decimal.NewFromInt(6)
		p.Status = catalog.ProductStatusInactive

		stored, created, err := repo.Upsert(ctx, p)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, before.ID, stored.ID, "the stored row keeps its identity")

		after, err := repo.FindBySKU(ctx, "MUG-1")
		require.NoError(t, err)
		assert.Equal(t, "Large Mug", after.Name)
		assert.Equal(t, "Stoneware", after.Description)
		assert.True(t, after.Price.Equal(decimal.NewFromInt(15)))
		assert.True(t, after.Cost.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, catalog.ProductStatusInactive, after.Status)
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("repeated upserts never duplicate the SKU", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			p, err := catalog.NewProduct("MUG-1", "Large Mug", decimal.RequireFromString("15"))
			require.NoError(t, err)
			_, _, err = repo.Upsert(ctx, p)
			require.NoError(t, err)
		}

		count, err := repo.CountBySKU(ctx, "MUG-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
	t.Run("identical record does not rewrite the row", func(t *testing.T) {
		p, err := catalog.NewProduct("MUG-2", "Espresso Cup", decimal.RequireFromString("8.25"))
		require.NoError(t, err)
		_, _, err = repo.Upsert(ctx, p)
		require.NoError(t, err)

		stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, db.Model(&models.ProductModel{}).
			Where("sku = ?", "MUG-2").
			UpdateColumn("updated_at", stamp).Error)

		again, err := catalog.NewProduct("MUG-2", "Espresso Cup", decimal.RequireFromString("8.25"))
		require.NoError(t, err)
		stored, created, err := repo.Upsert(ctx, again)
		require.NoError(t, err)
		assert.False(t, created)
		assert.True(t, stored.UpdatedAt.Equal(stamp))

		after, err := repo.FindBySKU(ctx, "MUG-2")
		require.NoError(t, err)
		assert.True(t, after.UpdatedAt.Equal(stamp), "updated_at moved to %s", after.UpdatedAt)
	})

	t.Run("changed record bumps updated_at", func(t *testing.T) {
		stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		changed, err := catalog.NewProduct("MUG-2", "Espresso Cup", decimal.RequireFromString("9"))
		require.NoError(t, err)
		_, _, err = repo.Upsert(ctx, changed)
		require.NoError(t, err)

		after, err := repo.FindBySKU(ctx, "MUG-2")
		require.NoError(t, err)
		assert.True(t, after.Price.Equal(decimal.NewFromInt(9)))
		assert.True(t, after.UpdatedAt.After(stamp))
	})
}

func TestGormProductRepository_Find(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := createTestProduct(t, db, "CUP-1")

	t.Run("finds by ID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "CUP-1", found.SKU)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(10)))
	})

	t.Run("returns ErrNotFound for unknown SKU", func(t *testing.T) {
		found, err := repo.FindBySKU(ctx, "NOPE")
		assert.Nil(t, found)
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("returns ErrNotFound for unknown ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
