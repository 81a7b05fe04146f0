// Package cache provides the Redis connection and a TTL page cache for
// whole-response caching.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to Redis at addr. A nil client is returned when Redis
// is unreachable; callers treat that as "caching disabled" and keep serving.
func InitRedis(addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		return nil
	}

	log.Println("Redis connected successfully")
	return client
}
