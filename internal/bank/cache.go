package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is the byte cache CachedStore reads through.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrCacheMiss when absent
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache { return &RedisCache{client: client} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, val, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// CachedStore keeps loaded definitions in a Cache in front of another Store.
// Cache failures are logged and fall through to the backing store.
type CachedStore struct {
	Store
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedStore(s Store, c Cache, ttl time.Duration, log *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{Store: s, cache: c, ttl: ttl, log: log}
}

func cacheKey(id string) string { return fmt.Sprintf("mcsaon:q:%s", id) }

func (c *CachedStore) Get(ctx context.Context, id string) (question.Definition, error) {
	b, err := c.cache.Get(ctx, cacheKey(id))
	switch {
	case err == nil:
		var d question.Definition
		if err := json.Unmarshal(b, &d); err == nil {
			return d, nil
		}
		c.log.Warn("cached definition unreadable", zap.String("question_id", id))
	case !errors.Is(err, ErrCacheMiss):
		c.log.Warn("cache get failed", zap.String("question_id", id), zap.Error(err))
	}

	d, err := c.Store.Get(ctx, id)
	if err != nil {
		return d, err
	}
	if b, err := json.Marshal(d); err == nil {
		if err := c.cache.Set(ctx, cacheKey(id), b, c.ttl); err != nil {
			c.log.Warn("cache set failed", zap.String("question_id", id), zap.Error(err))
		}
	}
	return d, nil
}

func (c *CachedStore) Save(ctx context.Context, def question.Definition) (question.Definition, error) {
	out, err := c.Store.Save(ctx, def)
	if err != nil {
		return out, err
	}
	c.evict(ctx, out.ID)
	return out, nil
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	err := c.Store.Delete(ctx, id)
	c.evict(ctx, id)
	return err
}

func (c *CachedStore) evict(ctx context.Context, id string) {
	if err := c.cache.Del(ctx, cacheKey(id)); err != nil {
		c.log.Warn("cache evict failed", zap.String("question_id", id), zap.Error(err))
	}
}
