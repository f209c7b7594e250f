package questions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache stores encoded question sets in redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Cached serves a provider's result from Cache when present, and stores
// every non-empty fresh result. Cache failures fall through to the
// provider; only provider errors are returned.
type Cached struct {
	Key      string
	TTL      time.Duration
	Cache    Cache
	Provider Provider
	Logf     func(format string, args ...any)
}

func (c *Cached) FetchQuestions(ctx context.Context) ([]Question, error) {
	data, err := c.Cache.Get(ctx, c.Key)
	switch {
	case err == nil:
		var qs []Question
		if err := json.Unmarshal(data, &qs); err == nil && len(qs) > 0 {
			return qs, nil
		}
		c.logf("QUESTIONS: Discarding unreadable cache entry %s", c.Key)
	case !errors.Is(err, ErrCacheMiss):
		c.logf("QUESTIONS: Cache read %s failed: %v", c.Key, err)
	}

	qs, err := c.Provider.FetchQuestions(ctx)
	if err != nil {
		return nil, err
	}

	qs = Sanitize(qs)
	if len(qs) == 0 {
		return qs, nil
	}

	data, err = json.Marshal(qs)
	if err == nil {
		err = c.Cache.Set(ctx, c.Key, data, c.TTL)
	}
	if err != nil {
		c.logf("QUESTIONS: Cache write %s failed: %v", c.Key, err)
	}

	return qs, nil
}

func (c *Cached) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}
