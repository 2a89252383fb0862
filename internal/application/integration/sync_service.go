package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/telemetry"
)

// SyncInProgressMessage is reported when another run holds the marketplace lock
const SyncInProgressMessage = "sync already in progress"

// IsSyncInProgress reports whether result was refused because another run
// held the marketplace lock
func IsSyncInProgress(result *integration.SyncResult) bool {
	return result != nil && !result.Success && result.Message == SyncInProgressMessage
}

// MetricsRecorder observes finished sync runs
type MetricsRecorder interface {
	ObserveSync(marketplace integration.MarketplaceType, result *integration.SyncResult)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSync(integration.MarketplaceType, *integration.SyncResult) {}

// SyncService is the entry point for marketplace synchronization. It caches
// one Channel per marketplace and serialises runs per marketplace through
// the SyncLock.
type SyncService struct {
	repos     Repositories
	connector integration.Connector
	lock      integration.SyncLock
	defaults  SyncDefaults
	metrics   MetricsRecorder
	logger    *zap.Logger

	mu       sync.Mutex
	channels map[uuid.UUID]*Channel
}

// NewSyncService creates a new SyncService
func NewSyncService(
	repos Repositories,
	connector integration.Connector,
	lock integration.SyncLock,
	defaults SyncDefaults,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *SyncService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		repos:     repos,
		connector: connector,
		lock:      lock,
		defaults:  defaults,
		metrics:   metrics,
		logger:    logger.Named("sync"),
		channels:  make(map[uuid.UUID]*Channel),
	}
}

// channel returns the cached channel for id, building it on first use
func (s *SyncService) channel(ctx context.Context, id uuid.UUID) (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[id]; ok {
		return ch, nil
	}

	m, err := s.repos.Marketplaces.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ch, err := s.newChannel(m)
	if err != nil {
		return nil, err
	}
	s.channels[id] = ch
	return ch, nil
}

func (s *SyncService) newChannel(m *integration.Marketplace) (*Channel, error) {
	conn, err := s.connector.Connect(m)
	if err != nil {
		return nil, err
	}
	cfg := NewChannelConfig(s.defaults, m.Settings.Options)
	return NewChannel(m, conn, cfg, s.repos, s.logger), nil
}

func (s *SyncService) evict(id uuid.UUID) {
	s.mu.Lock()
	delete(s.channels, id)
	s.mu.Unlock()
}

func lockKey(id uuid.UUID) string {
	return "sync:" + id.String()
}

// run executes one sync operation under the marketplace's sync lock. The
// returned error is only set when the marketplace cannot be resolved; every
// other failure is reported in the result.
func (s *SyncService) run(ctx context.Context, id uuid.UUID, category integration.SyncCategory, op func(*Channel, context.Context) *integration.SyncResult) (*integration.SyncResult, error) {
	ch, err := s.channel(ctx, id)
	if err != nil {
		return nil, err
	}
	m := ch.Marketplace()
	logger := s.logger.With(
		zap.String("marketplace_id", id.String()),
		zap.String("marketplace_type", string(m.Type)),
		zap.String("category", string(category)),
	)

	if m.Status == integration.MarketplaceStatusInactive {
		return integration.FailedSyncResult(category, integration.ErrMarketplaceInactive), nil
	}

	token, acquired, err := s.lock.TryAcquire(ctx, lockKey(id), s.defaults.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire sync lock", zap.Error(err))
		return integration.FailedSyncResult(category, fmt.Errorf("acquire sync lock: %w", err)), nil
	}
	if !acquired {
		logger.Info("Sync skipped, another run holds the lock")
		result := integration.NewSyncResult(category)
		result.Success = false
		result.Message = SyncInProgressMessage
		result.Finish()
		return result, nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockKey(id), token); err != nil {
			logger.Warn("Failed to release sync lock", zap.Error(err))
		}
	}()

	if s.defaults.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.JobTimeout)
		defer cancel()
	}

	ctx, span := telemetry.StartSpan(ctx, "sync."+string(category),
		attribute.String("marketplace.id", id.String()),
		attribute.String("marketplace.type", string(m.Type)),
	)
	defer span.End()

	logger.Info("Sync started")
	result := op(ch, ctx)
	s.metrics.ObserveSync(m.Type, result)
	span.SetAttributes(
		attribute.Int("sync.synced", result.SyncedCount),
		attribute.Int("sync.skipped", result.SkippedCount),
		attribute.Int("sync.errors", len(result.Errors)),
	)
	if !result.Success {
		telemetry.RecordError(span, errors.New(result.Message))
	}

	fields := []zap.Field{
		zap.Bool("success", result.Success),
		zap.Int("synced", result.SyncedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration()),
	}
	if result.Success {
		logger.Info("Sync finished", fields...)
	} else {
		logger.Warn("Sync finished with failure", append(fields, zap.String("message", result.Message))...)
	}
	return result, nil
}

// Sync runs a full products, orders and inventory reconciliation
func (s *SyncService) Sync(ctx context.Context, id uuid.UUID) (*integration.SyncResult, error) {
	return s.run(ctx, id, integration.SyncCategoryAll, (*Channel).Sync)
}

// SyncProducts runs product sync for one marketplace
func (s *SyncService) SyncProducts(ctx context.Context, id uuid.UUID) (*integration.SyncResult, error) {
	return s.run(ctx, id, integration.SyncCategoryProducts, (*Channel).SyncProducts)
}

// SyncOrders runs order sync for one marketplace
func (s *SyncService) SyncOrders(ctx context.Context, id uuid.UUID) (*integration.SyncResult, error) {
	return s.run(ctx, id, integration.SyncCategoryOrders, (*Channel).SyncOrders)
}

// SyncInventory runs inventory sync for one marketplace
func (s *SyncService) SyncInventory(ctx context.Context, id uuid.UUID) (*integration.SyncResult, error) {
	return s.run(ctx, id, integration.SyncCategoryInventory, (*Channel).SyncInventory)
}

// SyncCategory dispatches to the sync operation for category
func (s *SyncService) SyncCategory(ctx context.Context, id uuid.UUID, category integration.SyncCategory) (*integration.SyncResult, error) {
	switch category {
	case integration.SyncCategoryAll:
		return s.Sync(ctx, id)
	case integration.SyncCategoryProducts:
		return s.SyncProducts(ctx, id)
	case integration.SyncCategoryOrders:
		return s.SyncOrders(ctx, id)
	case integration.SyncCategoryInventory:
		return s.SyncInventory(ctx, id)
	default:
		return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("unknown sync category %q", category))
	}
}

// HealthCheck calls the marketplace's status endpoints
func (s *SyncService) HealthCheck(ctx context.Context, id uuid.UUID) (*integration.HealthResult, error) {
	ch, err := s.channel(ctx, id)
	if err != nil {
		return nil, err
	}
	result := ch.HealthCheck(ctx)
	return &result, nil
}

// ConnectChannel stores a new marketplace and initializes its channel.
// A failed initial health check does not undo the connection; the
// marketplace is returned with status error instead.
func (s *SyncService) ConnectChannel(ctx context.Context, cmd ConnectChannelCommand) (*integration.Marketplace, error) {
	m, err := integration.NewMarketplace(cmd.Name, cmd.Settings)
	if err != nil {
		return nil, err
	}
	ch, err := s.newChannel(m)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Marketplaces.Create(ctx, m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.channels[m.ID] = ch
	s.mu.Unlock()

	if err := ch.Initialize(ctx); err != nil {
		s.logger.Warn("Connected marketplace is not reachable",
			zap.String("marketplace_id", m.ID.String()),
			zap.Error(err),
		)
	}
	snapshot := ch.Marketplace()
	return &snapshot, nil
}

// DeleteChannel removes a marketplace with all its inventory, orders and
// stock adjustments. It fails with ErrSyncInProgress while a sync runs.
func (s *SyncService) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	token, acquired, err := s.lock.TryAcquire(ctx, lockKey(id), s.defaults.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return integration.ErrSyncInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockKey(id), token); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.String("marketplace_id", id.String()), zap.Error(err))
		}
	}()

	if err := s.repos.Marketplaces.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(id)
	s.logger.Info("Marketplace deleted", zap.String("marketplace_id", id.String()))
	return nil
}

// PushInventory sends a local quantity to the marketplace when the channel
// has push_on_adjust enabled. It reports whether a push was attempted.
func (s *SyncService) PushInventory(ctx context.Context, marketplaceID uuid.UUID, sku string, quantity int) (bool, error) {
	ch, err := s.channel(ctx, marketplaceID)
	if err != nil {
		return false, err
	}
	if !ch.Config().PushOnAdjust() {
		return false, nil
	}
	return true, ch.PushInventory(ctx, sku, quantity)
}

// ActiveMarketplaces lists the marketplaces taking part in scheduled syncs
func (s *SyncService) ActiveMarketplaces(ctx context.Context) ([]integration.Marketplace, error) {
	return s.repos.Marketplaces.FindActive(ctx)
}

// SyncAllActive runs a full sync for every active marketplace one after
// another. A marketplace that fails to resolve is reported in its outcome
// and does not stop the others.
func (s *SyncService) SyncAllActive(ctx context.Context) ([]ChannelSyncOutcome, error) {
	marketplaces, err := s.ActiveMarketplaces(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]ChannelSyncOutcome, 0, len(marketplaces))
	for _, m := range marketplaces {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		result, err := s.Sync(ctx, m.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			result = integration.FailedSyncResult(integration.SyncCategoryAll, err)
		}
		outcomes = append(outcomes, ChannelSyncOutcome{
			MarketplaceID:   m.ID,
			MarketplaceName: m.Name,
			Result:          result,
		})
	}
	return outcomes, nil
}
