package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/invsync/backend/internal/domain/integration"
)

func TestNewChannelConfig(t *testing.T) {
	t.Run("defaults apply when options are unset", func(t *testing.T) {
		cfg := NewChannelConfig(DefaultSyncDefaults(), integration.ChannelOptions{})

		assert.True(t, cfg.SyncProducts())
		assert.True(t, cfg.SyncOrders())
		assert.True(t, cfg.SyncInventory())
		assert.True(t, cfg.PushOnAdjust())
		assert.Equal(t, 100, cfg.PageSize())
		assert.Equal(t, 500, cfg.MaxPages())
		assert.Equal(t, 10, cfg.LowStockThreshold())
		assert.Equal(t, WatermarkClean, cfg.WatermarkPolicy())
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewChannelConfig(DefaultSyncDefaults(), integration.ChannelOptions{
			SyncOrders:        boolPtr(false),
			PushOnAdjust:      boolPtr(false),
			PageSize:          25,
			LowStockThreshold: 3,
		})

		assert.False(t, cfg.SyncOrders())
		assert.True(t, cfg.SyncProducts())
		assert.False(t, cfg.PushOnAdjust())
		assert.Equal(t, 25, cfg.PageSize())
		assert.Equal(t, 3, cfg.LowStockThreshold())
	})

	t.Run("invalid defaults fall back to built-in values", func(t *testing.T) {
		cfg := NewChannelConfig(SyncDefaults{WatermarkPolicy: "sometimes", LockTTL: time.Minute}, integration.ChannelOptions{})

		assert.Equal(t, 100, cfg.PageSize())
		assert.Equal(t, 500, cfg.MaxPages())
		assert.Equal(t, 10, cfg.LowStockThreshold())
		assert.Equal(t, WatermarkClean, cfg.WatermarkPolicy())
		assert.False(t, cfg.PushOnAdjust())
	})
}

func TestWatermarkPolicy_ShouldAdvance(t *testing.T) {
	clean := integration.NewSyncResult(integration.SyncCategoryAll)
	withItemErrors := integration.NewSyncResult(integration.SyncCategoryAll)
	withItemErrors.Errors = append(withItemErrors.Errors, "product X: name is required")
	failed := integration.NewSyncResult(integration.SyncCategoryAll)
	failed.Success = false

	tests := []struct {
		policy WatermarkPolicy
		result *integration.SyncResult
		full   bool
		want   bool
	}{
		{WatermarkClean, clean, true, true},
		{WatermarkClean, withItemErrors, true, false},
		{WatermarkClean, failed, true, false},
		{WatermarkOnSuccess, withItemErrors, false, true},
		{WatermarkOnSuccess, failed, true, false},
		{WatermarkAlways, failed, true, true},
		{WatermarkAlways, failed, false, false},
		{WatermarkAlways, withItemErrors, false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.policy.shouldAdvance(tt.result, tt.full),
			"policy=%s success=%v errors=%d full=%v", tt.policy, tt.result.Success, len(tt.result.Errors), tt.full)
	}

	assert.True(t, WatermarkAlways.IsValid())
	assert.False(t, WatermarkPolicy("").IsValid())
}
