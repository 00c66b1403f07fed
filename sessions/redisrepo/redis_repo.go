// Package redisrepo persists the session record in Redis so that several
// processes can share one login.
package redisrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-storefront/sessions"
)

var _ sessions.Repo = (*RedisRepo)(nil)

// DefaultKey is the key used when none is configured.
const DefaultKey = "storefront:session"

// RedisRepo stores the encoded record under a single key.
type RedisRepo struct {
	client redis.Cmdable
	key    string
}

// New returns a repo storing the record under key.
func New(client redis.Cmdable, key string) (*RedisRepo, error) {
	if client == nil {
		return nil, errors.New("[redisrepo.New] client is required")
	}
	if key == "" {
		key = DefaultKey
	}
	return &RedisRepo{client: client, key: key}, nil
}

func (r *RedisRepo) Load(ctx context.Context) (*sessions.Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo.Load] %w", err)
	}
	return sessions.DecodeRecord(data)
}

func (r *RedisRepo) Save(ctx context.Context, record sessions.Record) error {
	data, err := sessions.EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("[RedisRepo.Save] encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Save] %w", err)
	}
	return nil
}

func (r *RedisRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("[RedisRepo.Clear] %w", err)
	}
	return nil
}
