package integration

import (
	"time"

	"github.com/invsync/backend/internal/domain/integration"
)

// WatermarkPolicy decides when a sync run moves the marketplace's last_sync
type WatermarkPolicy string

const (
	// WatermarkClean advances only when every sub-sync succeeded without item errors
	WatermarkClean WatermarkPolicy = "clean"
	// WatermarkOnSuccess advances when every sub-sync succeeded
	WatermarkOnSuccess WatermarkPolicy = "on_success"
	// WatermarkAlways advances after every full sync regardless of the outcome
	WatermarkAlways WatermarkPolicy = "always"
)

// IsValid checks if the policy is known
func (p WatermarkPolicy) IsValid() bool {
	switch p {
	case WatermarkClean, WatermarkOnSuccess, WatermarkAlways:
		return true
	}
	return false
}

// shouldAdvance applies the policy to a finished result. full is true for
// the combined products, orders and inventory run.
func (p WatermarkPolicy) shouldAdvance(result *integration.SyncResult, full bool) bool {
	switch p {
	case WatermarkAlways:
		return full || result.Success
	case WatermarkOnSuccess:
		return result.Success
	default:
		return result.Success && !result.HasItemErrors()
	}
}

// SyncDefaults are the application wide sync settings a channel starts from
type SyncDefaults struct {
	PageSize          int
	MaxPages          int
	LowStockThreshold int
	WatermarkPolicy   WatermarkPolicy
	PushOnAdjust      bool
	LockTTL           time.Duration
	JobTimeout        time.Duration
}

// DefaultSyncDefaults returns the built-in sync settings
func DefaultSyncDefaults() SyncDefaults {
	return SyncDefaults{
		PageSize:          100,
		MaxPages:          500,
		LowStockThreshold: 10,
		WatermarkPolicy:   WatermarkClean,
		PushOnAdjust:      true,
		LockTTL:           45 * time.Minute,
		JobTimeout:        30 * time.Minute,
	}
}

// ChannelConfig is the resolved configuration of one channel. It is built
// once when the channel is created and never changes afterwards.
type ChannelConfig struct {
	syncProducts      bool
	syncOrders        bool
	syncInventory     bool
	pushOnAdjust      bool
	pageSize          int
	maxPages          int
	lowStockThreshold int
	watermarkPolicy   WatermarkPolicy
}

// NewChannelConfig merges a marketplace's options over the defaults.
// Unset options take the default value.
func NewChannelConfig(defaults SyncDefaults, opts integration.ChannelOptions) ChannelConfig {
	builtin := DefaultSyncDefaults()
	if defaults.PageSize <= 0 {
		defaults.PageSize = builtin.PageSize
	}
	if defaults.MaxPages <= 0 {
		defaults.MaxPages = builtin.MaxPages
	}
	if defaults.LowStockThreshold <= 0 {
		defaults.LowStockThreshold = builtin.LowStockThreshold
	}
	if !defaults.WatermarkPolicy.IsValid() {
		defaults.WatermarkPolicy = builtin.WatermarkPolicy
	}

	cfg := ChannelConfig{
		syncProducts:      boolOr(opts.SyncProducts, true),
		syncOrders:        boolOr(opts.SyncOrders, true),
		syncInventory:     boolOr(opts.SyncInventory, true),
		pushOnAdjust:      boolOr(opts.PushOnAdjust, defaults.PushOnAdjust),
		pageSize:          defaults.PageSize,
		maxPages:          defaults.MaxPages,
		lowStockThreshold: defaults.LowStockThreshold,
		watermarkPolicy:   defaults.WatermarkPolicy,
	}
	if opts.PageSize > 0 {
		cfg.pageSize = opts.PageSize
	}
	if opts.LowStockThreshold > 0 {
		cfg.lowStockThreshold = opts.LowStockThreshold
	}
	return cfg
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// SyncProducts reports whether product sync runs as part of a full sync
func (c ChannelConfig) SyncProducts() bool { return c.syncProducts }

// SyncOrders reports whether order sync runs as part of a full sync
func (c ChannelConfig) SyncOrders() bool { return c.syncOrders }

// SyncInventory reports whether inventory sync runs as part of a full sync
func (c ChannelConfig) SyncInventory() bool { return c.syncInventory }

// PushOnAdjust reports whether local stock adjustments are pushed to the marketplace
func (c ChannelConfig) PushOnAdjust() bool { return c.pushOnAdjust }

// PageSize is the number of records requested per page
func (c ChannelConfig) PageSize() int { return c.pageSize }

// MaxPages bounds the pages fetched per listing
func (c ChannelConfig) MaxPages() int { return c.maxPages }

// LowStockThreshold is applied to inventory rows created by this channel
func (c ChannelConfig) LowStockThreshold() int { return c.lowStockThreshold }

// WatermarkPolicy returns the channel's watermark policy
func (c ChannelConfig) WatermarkPolicy() WatermarkPolicy { return c.watermarkPolicy }
