package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/domain/trade"
)

// Repositories groups the stores a channel writes to
type Repositories struct {
	Products     catalog.ProductRepository
	Inventory    inventory.InventoryRepository
	Orders       trade.OrderRepository
	Marketplaces integration.MarketplaceRepository
}

// Channel pairs one marketplace with its client and drives its sync runs.
// Every public operation passes through ensureReady first.
type Channel struct {
	cfg        ChannelConfig
	client     integration.MarketplaceClient
	normalizer integration.RecordNormalizer
	repos      Repositories
	logger     *zap.Logger

	mu          sync.Mutex
	state       integration.ChannelState
	marketplace integration.Marketplace
}

// NewChannel creates an uninitialized channel for m
func NewChannel(m *integration.Marketplace, conn *integration.Connection, cfg ChannelConfig, repos Repositories, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		cfg:         cfg,
		client:      conn.Client,
		normalizer:  conn.Normalizer,
		repos:       repos,
		logger:      logger.With(zap.String("marketplace_id", m.ID.String()), zap.String("marketplace_type", string(m.Type))),
		state:       integration.ChannelStateUninitialized,
		marketplace: *m,
	}
}

// State returns the current lifecycle state
func (c *Channel) State() integration.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Marketplace returns a snapshot of the channel's marketplace
func (c *Channel) Marketplace() integration.Marketplace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.marketplace
}

// Config returns the channel configuration
func (c *Channel) Config() ChannelConfig {
	return c.cfg
}

func (c *Channel) lastSync() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.marketplace.LastSync == nil {
		return nil
	}
	at := *c.marketplace.LastSync
	return &at
}

// Initialize health-checks the marketplace and moves the channel to READY,
// or to ERROR on failure. Calling it on a READY channel is a no-op; calling
// it while another initialization runs fails with ErrChannelInitializing.
func (c *Channel) Initialize(ctx context.Context) error {
	c.mu.Lock()
	from := c.state
	switch from {
	case integration.ChannelStateReady:
		c.mu.Unlock()
		return nil
	case integration.ChannelStateInitializing:
		c.mu.Unlock()
		return integration.ErrChannelInitializing
	}
	c.state = integration.ChannelStateInitializing
	c.mu.Unlock()
	c.logTransition(from, integration.ChannelStateInitializing)

	path, err := c.client.HealthCheck(ctx)
	if err != nil {
		c.setState(integration.ChannelStateError)
		c.logger.Error("Channel initialization failed", zap.Error(err))
		c.setMarketplaceStatus(ctx, integration.MarketplaceStatusError)
		return fmt.Errorf("initialize channel: %w", err)
	}

	c.setState(integration.ChannelStateReady)
	c.logger.Debug("Marketplace health check passed", zap.String("endpoint", path))
	if c.Marketplace().Status == integration.MarketplaceStatusError {
		c.setMarketplaceStatus(ctx, integration.MarketplaceStatusActive)
	}
	return nil
}

// ensureReady guards every operation: READY proceeds, UNINITIALIZED and
// ERROR initialize first, INITIALIZING fails immediately.
func (c *Channel) ensureReady(ctx context.Context) error {
	switch state := c.State(); state {
	case integration.ChannelStateReady:
		return nil
	case integration.ChannelStateInitializing:
		return integration.ErrChannelInitializing
	default:
		c.logger.Info("Initializing channel before use", zap.String("state", string(state)))
		return c.Initialize(ctx)
	}
}

func (c *Channel) setState(to integration.ChannelState) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	c.logTransition(from, to)
}

func (c *Channel) logTransition(from, to integration.ChannelState) {
	c.logger.Info("Channel state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

func (c *Channel) setMarketplaceStatus(ctx context.Context, status integration.MarketplaceStatus) {
	if err := c.repos.Marketplaces.UpdateStatus(ctx, c.marketplace.ID, status); err != nil {
		c.logger.Warn("Failed to update marketplace status",
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}
	c.mu.Lock()
	c.marketplace.Status = status
	c.mu.Unlock()
}

// HealthCheck checks the marketplace without changing the channel state
func (c *Channel) HealthCheck(ctx context.Context) integration.HealthResult {
	start := time.Now()
	path, err := c.client.HealthCheck(ctx)
	latency := time.Since(start)
	if err != nil {
		return integration.HealthResult{Success: false, Message: err.Error(), Latency: latency}
	}
	return integration.HealthResult{
		Success: true,
		Message: fmt.Sprintf("%s responded on %s", c.marketplace.Type.DisplayName(), path),
		Latency: latency,
	}
}

// Sync runs product, order and inventory sync in that order, skipping the
// categories disabled in the channel configuration, and aggregates the results.
func (c *Channel) Sync(ctx context.Context) *integration.SyncResult {
	if err := c.ensureReady(ctx); err != nil {
		return integration.FailedSyncResult(integration.SyncCategoryAll, err)
	}

	result := integration.NewSyncResult(integration.SyncCategoryAll)
	since := c.lastSync()

	steps := []struct {
		enabled bool
		run     func(context.Context, *time.Time) *integration.SyncResult
	}{
		{c.cfg.SyncProducts(), c.syncProducts},
		{c.cfg.SyncOrders(), c.syncOrders},
		{c.cfg.SyncInventory(), c.syncInventory},
	}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		sub := step.run(ctx, since)
		sub.Finish()
		result.Merge(sub)
	}

	result.Finish()
	c.advanceWatermark(ctx, result, true)
	return result
}

// SyncProducts runs product sync on its own
func (c *Channel) SyncProducts(ctx context.Context) *integration.SyncResult {
	return c.runCategory(ctx, integration.SyncCategoryProducts, c.syncProducts)
}

// SyncOrders runs order sync on its own
func (c *Channel) SyncOrders(ctx context.Context) *integration.SyncResult {
	return c.runCategory(ctx, integration.SyncCategoryOrders, c.syncOrders)
}

// SyncInventory runs inventory sync on its own
func (c *Channel) SyncInventory(ctx context.Context) *integration.SyncResult {
	return c.runCategory(ctx, integration.SyncCategoryInventory, c.syncInventory)
}

func (c *Channel) runCategory(ctx context.Context, category integration.SyncCategory, run func(context.Context, *time.Time) *integration.SyncResult) *integration.SyncResult {
	if err := c.ensureReady(ctx); err != nil {
		return integration.FailedSyncResult(category, err)
	}
	result := run(ctx, c.lastSync())
	result.Finish()
	c.advanceWatermark(ctx, result, false)
	return result
}

// advanceWatermark moves last_sync to the run's start time when the policy
// allows it. Records changed while the run was in flight are fetched again
// next time.
func (c *Channel) advanceWatermark(ctx context.Context, result *integration.SyncResult, full bool) {
	if !c.cfg.WatermarkPolicy().shouldAdvance(result, full) {
		c.logger.Info("Sync watermark kept",
			zap.String("category", string(result.Category)),
			zap.Bool("success", result.Success),
			zap.Int("errors", len(result.Errors)),
		)
		return
	}

	at := result.StartedAt
	if err := c.repos.Marketplaces.UpdateLastSync(context.WithoutCancel(ctx), c.marketplace.ID, at); err != nil {
		c.logger.Error("Failed to advance sync watermark", zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("watermark: %v", err))
		return
	}
	c.mu.Lock()
	c.marketplace.LastSync = &at
	c.mu.Unlock()
}

// PushInventory sends a local quantity to the marketplace
func (c *Channel) PushInventory(ctx context.Context, sku string, quantity int) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	return c.client.PushInventory(ctx, sku, quantity)
}
