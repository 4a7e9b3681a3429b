package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mailhub:pwtoken:"

// RedisStore keeps escrowed passwords in Redis, which makes reveal
// tokens work across multiple API and worker processes. Redis handles
// expiry; consumption is a single GETDEL so two concurrent reveals can
// never both succeed.
type RedisStore struct {
	client *redis.Client
	sealer sealer
}

func NewRedis(client *redis.Client, siteSecret string) *RedisStore {
	return &RedisStore{client: client, sealer: newSealer(siteSecret)}
}

func (s *RedisStore) Put(ctx context.Context, accountID, password string, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	payload, err := s.sealer.seal(accountID, password)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, redisKeyPrefix+token, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Take(ctx context.Context, token, accountID string) (string, error) {
	payload, err := s.client.GetDel(ctx, redisKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("take token: %w", err)
	}
	return s.sealer.open(payload, accountID)
}
