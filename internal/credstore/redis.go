package credstore

import (
	"context"
	"time"

	goRedis "github.com/redis/go-redis/v9"
)

// RedisStore shares the token slots through Redis for headless hosts that
// have no stable local filesystem (CI runners, short-lived containers).
type RedisStore struct {
	client *goRedis.Client
	prefix string
}

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	URL      string
	Password string
	DB       int
}

// OpenRedis creates a Redis client and performs a health check.
func OpenRedis(opts RedisOptions) (*RedisStore, error) {
	parsed, err := goRedis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Password != "" {
		parsed.Password = opts.Password
	}
	if opts.DB != 0 {
		parsed.DB = opts.DB
	}

	client := goRedis.NewClient(parsed)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{
		client: client,
		prefix: "cred:",
	}, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	result, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if err == goRedis.Nil {
			return "", ErrNotFound
		}
		return "", err
	}
	return result, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
