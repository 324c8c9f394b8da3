package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBlacklistRepository keeps the deny list in redis. Each entry is a key
// with a TTL equal to the access-token max lifetime, so redis handles the
// natural-expiry purge itself and DeleteOlderThan has nothing to do.
type redisBlacklistRepository struct {
	client *redis.Client   // Redis client instance
	ctx    context.Context // Context for managing request lifecycle
	ttl    time.Duration   // access token max lifetime
}

// NewRedisBlacklistRepository creates a redis-backed BlacklistRepository.
// ttl should be the access-token max lifetime so entries outlive the tokens they block.
func NewRedisBlacklistRepository(client *redis.Client, ttl time.Duration) BlacklistRepository {
	return &redisBlacklistRepository{
		client: client,
		ctx:    context.Background(),
		ttl:    ttl,
	}
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:token:%s", token)
}

func (r *redisBlacklistRepository) Add(token string, blacklistedAt time.Time) error {
	return r.client.Set(r.ctx, blacklistKey(token), blacklistedAt.Format(time.RFC3339Nano), r.ttl).Err()
}

func (r *redisBlacklistRepository) Exists(token string) (bool, error) {
	n, err := r.client.Exists(r.ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteOlderThan is a no-op for redis: the per-key TTL set in Add already
// expires entries once the blocked token is past its natural lifetime.
func (r *redisBlacklistRepository) DeleteOlderThan(cutoff time.Time) error {
	return nil
}
