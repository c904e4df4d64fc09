package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// InvalidationChannel receives every invalidated path.
const InvalidationChannel = "cache:invalidate"

const (
	pagePrefix    = "page:"
	variantPrefix = "pagekeys:"
)

// Page is a cached response.
type Page struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IInvalidator drops cached responses for logical paths.
type IInvalidator interface {
	// Invalidate drops every cached variant (any query string) of each path.
	Invalidate(ctx context.Context, paths ...string) error
}

// IPageCache caches public responses by path and query.
type IPageCache interface {
	IInvalidator
	Get(ctx context.Context, path, rawQuery string) (*Page, bool)
	Set(ctx context.Context, path, rawQuery string, page *Page) error
}

// PageKey returns the Redis key of one cached variant.
func PageKey(path, rawQuery string) string {
	path = normalizePath(path)
	if rawQuery == "" {
		return pagePrefix + path
	}
	return pagePrefix + path + "?" + rawQuery
}

func variantKey(path string) string {
	return variantPrefix + normalizePath(path)
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

type redisPageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPageCache returns a page cache whose entries live for ttl.
func NewRedisPageCache(client *redis.Client, ttl time.Duration) IPageCache {
	return &redisPageCache{client: client, ttl: ttl}
}

func (c *redisPageCache) Get(ctx context.Context, path, rawQuery string) (*Page, bool) {
	data, err := c.client.Get(ctx, PageKey(path, rawQuery)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Page cache read failed for %s: %v", path, err)
		}
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		log.Printf("Discarding corrupt page cache entry for %s: %v", path, err)
		return nil, false
	}
	return &page, true
}

func (c *redisPageCache) Set(ctx context.Context, path, rawQuery string, page *Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode cached page: %w", err)
	}
	key := PageKey(path, rawQuery)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, c.ttl)
		pipe.SAdd(ctx, variantKey(path), key)
		pipe.Expire(ctx, variantKey(path), c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store cached page %s: %w", key, err)
	}
	return nil
}

func (c *redisPageCache) Invalidate(ctx context.Context, paths ...string) error {
	var errs []error
	for _, path := range paths {
		vk := variantKey(path)
		keys, err := c.client.SMembers(ctx, vk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			errs = append(errs, fmt.Errorf("list cached variants of %s: %w", path, err))
			continue
		}
		keys = append(keys, vk, PageKey(path, ""))
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			errs = append(errs, fmt.Errorf("drop cached variants of %s: %w", path, err))
			continue
		}
		if err := c.client.Publish(ctx, InvalidationChannel, normalizePath(path)).Err(); err != nil {
			log.Printf("Publishing invalidation of %s failed: %v", path, err)
		}
	}
	return errors.Join(errs...)
}

// NoopInvalidator is used when no page cache is configured.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context, ...string) error { return nil }

// RecordingInvalidator remembers invalidated paths, for tests and mock mode.
type RecordingInvalidator struct {
	Paths []string
}

func (r *RecordingInvalidator) Invalidate(_ context.Context, paths ...string) error {
	r.Paths = append(r.Paths, paths...)
	return nil
}
