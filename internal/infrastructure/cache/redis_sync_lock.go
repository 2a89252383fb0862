package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/invsync/backend/internal/domain/integration"
)

// releaseScript deletes the lock only when it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSyncLock implements SyncLock with SET NX and a compare-and-delete
// script, so locks are shared by every server instance using the same Redis
type RedisSyncLock struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSyncLock connects to Redis and verifies the connection
func NewRedisSyncLock(cfg RedisConfig) (*RedisSyncLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSyncLockWithClient(client, ""), nil
}

// NewRedisSyncLockWithClient creates a lock on an existing client
func NewRedisSyncLockWithClient(client *redis.Client, keyPrefix string) *RedisSyncLock {
	if keyPrefix == "" {
		keyPrefix = "invsync:lock:"
	}
	return &RedisSyncLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// TryAcquire sets the key to a fresh token if it does not exist yet
func (l *RedisSyncLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the key if token still owns it. Releasing an expired or
// foreign lock is a no-op.
func (l *RedisSyncLock) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisSyncLock) Close() error {
	return l.client.Close()
}

// Ensure RedisSyncLock implements SyncLock
var _ integration.SyncLock = (*RedisSyncLock)(nil)
