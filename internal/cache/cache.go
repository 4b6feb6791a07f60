// Package cache is a small TTL snapshot cache over Redis for the read-side
// endpoints. Occupancy tolerates slightly stale answers, so a short TTL keeps
// dashboard polling off the database. The cache is injected where used and a
// nil *Snapshots disables it entirely; there is no ambient state.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Snapshots struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a snapshot cache, or nil (caching disabled) when addr is empty.
func New(addr, password string, ttl time.Duration) *Snapshots {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &Snapshots{client: client, ttl: ttl}
}

// Get unmarshals a cached snapshot into v. A nil receiver, a miss, or a
// Redis error all report false; the caller just recomputes.
func (s *Snapshots) Get(ctx context.Context, key string, v any) bool {
	if s == nil {
		return false
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("[cache] decode %s: %v", key, err)
		return false
	}
	return true
}

// Set stores a snapshot under the configured TTL; eviction is Redis's expiry,
// nothing is retained past it. Failures only log; caching is best-effort.
func (s *Snapshots) Set(ctx context.Context, key string, v any) {
	if s == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[cache] encode %s: %v", key, err)
		return
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// Invalidate drops a key after a write makes it stale.
func (s *Snapshots) Invalidate(ctx context.Context, key string) {
	if s == nil {
		return
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[cache] del %s: %v", key, err)
	}
}
