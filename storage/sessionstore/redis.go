package sessionstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
)

type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedis returns a Persister keeping the snapshot under the `<namespace>:session` key.
func NewRedis(ctx context.Context, conf core.SessionConfig) (session.Persister, error) {
	if conf.Redis.Addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return &redisStore{client: client, key: conf.Namespace + ":session"}, nil
}

func (s *redisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, session.ErrNoSnapshot
	}
	return data, errors.Wrap(err, "redis get")
}

func (s *redisStore) Save(ctx context.Context, data []byte) error {
	return errors.Wrap(s.client.Set(ctx, s.key, data, 0).Err(), "redis set")
}

func (s *redisStore) Delete(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.key).Err(), "redis del")
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
