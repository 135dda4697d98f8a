package sessionstore

import (
	"checksheet-backend/internal/domain/session"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checksheet:session:"

// RedisStore keeps editing sessions as JSON with a sliding TTL: every Put
// extends the lifetime.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ session.Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var out session.Session
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &out, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *session.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, keyPrefix+sess.ID, payload, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, keyPrefix+id).Err()
}
