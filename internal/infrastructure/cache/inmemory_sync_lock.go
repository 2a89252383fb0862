package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invsync/backend/internal/domain/integration"
)

type lockEntry struct {
	token     string
	expiresAt time.Time
}

// InMemorySyncLock implements SyncLock within a single process.
// It is used when Redis is not configured and in tests.
type InMemorySyncLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	now   func() time.Time
}

// NewInMemorySyncLock creates a new in-memory sync lock
func NewInMemorySyncLock() *InMemorySyncLock {
	return &InMemorySyncLock{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// TryAcquire takes key unless a live holder owns it. Expired entries are
// taken over.
func (l *InMemorySyncLock) TryAcquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.locks[key]; held && now.Before(e.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.locks[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release frees key if token still owns it
func (l *InMemorySyncLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, held := l.locks[key]; held && e.token == token {
		delete(l.locks, key)
	}
	return nil
}

// Ensure InMemorySyncLock implements SyncLock
var _ integration.SyncLock = (*InMemorySyncLock)(nil)
