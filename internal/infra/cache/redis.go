package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"news-digest/internal/domain"
)

// RedisRunLock implements domain.RunLock with SET NX.
type RedisRunLock struct {
	client *redis.Client
}

// NewRunLock creates the lock.
func NewRunLock(client *redis.Client) *RedisRunLock {
	return &RedisRunLock{client: client}
}

var _ domain.RunLock = (*RedisRunLock)(nil)

// Acquire returns true when this process owns the slot's run for the date.
func (l *RedisRunLock) Acquire(ctx context.Context, date time.Time, slot domain.Slot, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("digest:run:%s:%s", date.Format("2006-01-02"), slot)
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return ok, nil
}
