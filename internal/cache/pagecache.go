package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Store is the backing key/value store for the page cache. Implementations
// must treat a missing key as (nil, false, nil), not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore backs the page cache with Redis. A nil client makes every Get a
// miss and every Set a no-op, which disables caching without special cases
// at the call site.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Store backed by the given Redis client (may be nil).
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used in tests and single-node setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

// cachedPage is the serialized form of a cached response.
type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageMiddleware caches successful GET responses for ttl, keyed by request
// path plus query string. Requests for which skip returns true bypass the
// cache in both directions; pages render per-viewer chrome, so the caller
// must keep authenticated requests out of a cache shared with anonymous
// ones. Cache failures are swallowed so a broken store never breaks the
// page.
func PageMiddleware(store Store, ttl time.Duration, skip func(*fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		if skip != nil && skip(c) {
			return c.Next()
		}

		key := "page:" + c.Path()
		if q := string(c.Request().URI().QueryString()); q != "" {
			key += "?" + q
		}

		if raw, ok, err := store.Get(c.Context(), key); err == nil && ok {
			var page cachedPage
			if err := json.Unmarshal(raw, &page); err == nil {
				c.Set(fiber.HeaderContentType, page.ContentType)
				return c.Status(page.Status).Send(page.Body)
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			page := cachedPage{
				Status:      fiber.StatusOK,
				ContentType: string(c.Response().Header.ContentType()),
				Body:        append([]byte(nil), c.Response().Body()...),
			}
			if raw, err := json.Marshal(page); err == nil {
				_ = store.Set(c.Context(), key, raw, ttl)
			}
		}
		return nil
	}
}
