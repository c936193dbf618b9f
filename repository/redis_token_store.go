// file: repository/redis_token_store.go

package repository

import (
	"context"
	"errors"
	"fmt"
	"go-access-gate/logger"
	"go-access-gate/model"

	"github.com/redis/go-redis/v9"
)

const maxTxAttempts = 3

// RedisTokenStore keeps the JSON token table under a single Redis key.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (model.TokenTable, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.TokenTable{}, nil
		}
		logger.Log.WithError(err).WithField("key", s.key).Error("Failed to read token table from Redis")
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeTable(data)
}

func (s *RedisTokenStore) Save(ctx context.Context, table model.TokenTable) error {
	data, err := encodeTable(table)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", s.key).Error("Failed to write token table to Redis")
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Update wraps the cycle in WATCH/MULTI and retries when another writer
// touched the key in between.
func (s *RedisTokenStore) Update(ctx context.Context, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get %s: %w", s.key, err)
		}
		table, err := decodeTable(data)
		if err != nil {
			return err
		}

		changed, err := fn(table)
		if err != nil || !changed {
			return err
		}

		encoded, err := encodeTable(table)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, encoded, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			logger.Log.WithField("attempt", attempt+1).Warn("Token table changed during update, retrying")
			continue
		}
		return err
	}
	return ErrStoreConflict
}
