package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/triage-dashboard/internal/domain"
)

const (
	// TeamListKey is the Redis key holding the selectable team list.
	TeamListKey = "triage:teams"
	// DefaultTeamListTTL applies when no TTL is configured.
	DefaultTeamListTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when no team list is cached.
var ErrCacheMiss = errors.New("team list not cached")

// TeamCache keeps the backend's team list in Redis.
type TeamCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewTeamCache creates a cache. A non-positive ttl falls back to DefaultTeamListTTL.
func NewTeamCache(client *redis.Client, ttl time.Duration) *TeamCache {
	if ttl <= 0 {
		ttl = DefaultTeamListTTL
	}
	return &TeamCache{client: client, key: TeamListKey, ttl: ttl}
}

// Get returns the cached teams or ErrCacheMiss.
func (c *TeamCache) Get(ctx context.Context) ([]domain.Team, error) {
	if c == nil || c.client == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get team list: %w", err)
	}

	var teams []domain.Team
	if err := json.Unmarshal(data, &teams); err != nil {
		// A corrupt entry is dropped so the next read refetches.
		_ = c.client.Del(ctx, c.key).Err()
		return nil, fmt.Errorf("decode cached team list: %w", err)
	}
	return teams, nil
}

// Set stores the teams with the configured TTL.
func (c *TeamCache) Set(ctx context.Context, teams []domain.Team) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(teams)
	if err != nil {
		return fmt.Errorf("encode team list: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set team list: %w", err)
	}
	return nil
}
