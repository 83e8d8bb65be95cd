package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as a hash with a sliding expiry.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("journal:session:%s", id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	key := sessionKey(id)
	fields, err := s.redis.HGetAll(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	if err := s.redis.Expire(ctx, key, s.ttl).Err(); err != nil {
		return nil, errors.Wrap(err, "refresh session ttl")
	}
	return decode(id, fields), nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	fields, err := encode(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	key := sessionKey(sess.ID)
	values := make([]interface{}, 0, len(fields)*2)
	for field, value := range fields {
		values = append(values, field, value)
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}
