package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/infrastructure/config"
)

// SyncLockFactory creates sync locks based on configuration
type SyncLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SyncLockFactoryOption is a functional option for configuring the factory
type SyncLockFactoryOption func(*SyncLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SyncLockFactoryOption {
	return func(f *SyncLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory lock. Default is true.
func WithInMemoryFallback(allow bool) SyncLockFactoryOption {
	return func(f *SyncLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSyncLockFactory creates a new factory
func NewSyncLockFactory(cfg config.RedisConfig, opts ...SyncLockFactoryOption) *SyncLockFactory {
	f := &SyncLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateLock returns a Redis lock when Redis is enabled and reachable,
// otherwise the in-memory lock
func (f *SyncLockFactory) CreateLock() (integration.SyncLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory sync lock")
		return NewInMemorySyncLock(), nil
	}

	lock, err := NewRedisSyncLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis sync lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for sync lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sync lock. "+
		"Concurrent syncs are only prevented within this instance.",
		zap.Error(err),
	)
	return NewInMemorySyncLock(), nil
}
