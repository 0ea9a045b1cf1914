package types

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore mirrors a QTable into a redis hash, one field per state
// using the same key and value encoding as Serialize
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store writing to the hash at key
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Save replaces the hash content with the table
func (r *RedisStore) Save(ctx context.Context, q *QTable) error {
	fields := make(map[string]interface{}, q.Len())
	for _, k := range q.Keys() {
		bs, err := json.Marshal(q.Get(k))
		if err != nil {
			return fmt.Errorf("encoding state %s: %w", k, err)
		}
		fields[k.String()] = string(bs)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving q-table to redis %s: %w", r.key, err)
	}
	return nil
}

// Load replaces the table content with the hash content
func (r *RedisStore) Load(ctx context.Context, q *QTable) error {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("loading q-table from redis %s: %w", r.key, err)
	}
	rows := make(map[string][]float64, len(values))
	for k, v := range values {
		row := make([]float64, 0)
		if err := json.Unmarshal([]byte(v), &row); err != nil {
			return fmt.Errorf("state %s: %v: %w", k, err, ErrMalformedTable)
		}
		rows[k] = row
	}
	return q.replace(rows)
}
