package repository

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLockPrefix = "courtbook:lock:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLockRepository struct {
	client *redis.Client
}

func NewRedisLockRepository(client *redis.Client) LockRepository {
	return &redisLockRepository{client: client}
}

func (r *redisLockRepository) Acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, redisLockPrefix+key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return bookingserrors.ErrLockHeld
	}
	return nil
}

func (r *redisLockRepository) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, r.client, []string{redisLockPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
