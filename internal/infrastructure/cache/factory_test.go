package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invsync/backend/internal/infrastructure/config"
)

func TestSyncLockFactory_CreateLock(t *testing.T) {
	t.Run("uses in-memory lock when Redis is disabled", func(t *testing.T) {
		lock, err := NewSyncLockFactory(config.RedisConfig{Enabled: false}).CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySyncLock{}, lock)
	})

	// port 1 is never a Redis server
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back to in-memory lock when Redis is unreachable", func(t *testing.T) {
		lock, err := NewSyncLockFactory(unreachable).CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySyncLock{}, lock)
	})

	t.Run("fails without fallback when Redis is unreachable", func(t *testing.T) {
		_, err := NewSyncLockFactory(unreachable, WithInMemoryFallback(false)).CreateLock()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
