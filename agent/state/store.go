package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	"github.com/tanpawarit/link-companion-assistant/pkg/errx"
)

const (
	defaultStoreKeyPrefix = "lca:history:"
	defaultStoreTTL       = 24 * time.Hour
)

// StoreOption customizes RedisStore.
type StoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// RedisStore keeps each transcript as a Redis list of JSON-encoded turns.
// Append pushes, trims and reads back inside one MULTI/EXEC so concurrent
// writers to a session never observe more than MaxHistoryEntries.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

var _ contractx.HistoryStore = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	store := &RedisStore{
		client:    client,
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]contractx.Turn, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.LRange(ctx, key, -MaxHistoryEntries, -1).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return decodeTurns(raw)
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...contractx.Turn) ([]contractx.Turn, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateTurns(turns); err != nil {
		return nil, err
	}

	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshal turn: %w", err)
		}
		values = append(values, string(b))
	}

	var lrange *redis.StringSliceCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		pipe.LTrim(ctx, key, -MaxHistoryEntries, -1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		lrange = pipe.LRange(ctx, key, 0, -1)
		return nil
	})
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return decodeTurns(lrange.Val())
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	return errx.WrapRedis(s.client.Del(ctx, key).Err())
}

func (s *RedisStore) redisKey(sessionID string) (string, error) {
	if err := validateSession(sessionID); err != nil {
		return "", err
	}
	return s.keyPrefix + sessionID, nil
}

func decodeTurns(raw []string) ([]contractx.Turn, error) {
	turns := make([]contractx.Turn, 0, len(raw))
	for i, item := range raw {
		var t contractx.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode turn %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return Truncate(turns), nil
}
