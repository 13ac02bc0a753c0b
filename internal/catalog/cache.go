package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// CachedProvider is a read-through Redis cache in front of another Provider.
// Entries expire after ttl, which bounds how stale a catalog can be after the
// owning collaborator updates it.
type CachedProvider struct {
	source Provider
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedProvider wraps source. A non-positive ttl defaults to five minutes.
func NewCachedProvider(source Provider, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedProvider {
	if source == nil {
		panic("catalog: source provider required")
	}
	if client == nil {
		panic("catalog: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedProvider{source: source, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(kind, businessID string) string {
	return fmt.Sprintf("catalog:%s:%s", kind, businessID)
}

// Services returns the cached catalog or loads it from the source.
func (c *CachedProvider) Services(ctx context.Context, businessID string) ([]Service, error) {
	var out []Service
	err := c.readThrough(ctx, businessID, "services", &out, func() (any, error) {
		return c.source.Services(ctx, businessID)
	})
	return out, err
}

// ContactDetails returns the cached details or loads them from the source.
func (c *CachedProvider) ContactDetails(ctx context.Context, businessID string) (ContactDetails, error) {
	var out ContactDetails
	err := c.readThrough(ctx, businessID, "contact", &out, func() (any, error) {
		return c.source.ContactDetails(ctx, businessID)
	})
	return out, err
}

// FAQs returns the cached FAQs or loads them from the source.
func (c *CachedProvider) FAQs(ctx context.Context, businessID string) ([]FAQ, error) {
	var out []FAQ
	err := c.readThrough(ctx, businessID, "faqs", &out, func() (any, error) {
		return c.source.FAQs(ctx, businessID)
	})
	return out, err
}

// Invalidate drops every cached entry for a business.
func (c *CachedProvider) Invalidate(ctx context.Context, businessID string) error {
	keys := []string{
		cacheKey("services", businessID),
		cacheKey("contact", businessID),
		cacheKey("faqs", businessID),
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("catalog: invalidate cache: %w", err)
	}
	return nil
}

// readThrough decodes the cached value into dst, or calls load and caches the
// result. Cache failures degrade to the source; they are never returned.
func (c *CachedProvider) readThrough(ctx context.Context, businessID, kind string, dst any, load func() (any, error)) error {
	if strings.TrimSpace(businessID) == "" {
		return ErrBusinessRequired
	}
	key := cacheKey(kind, businessID)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, dst); jsonErr == nil {
			return nil
		}
		c.logger.Warn("catalog: discarding undecodable cache entry", "key", key)
	case err != redis.Nil:
		c.logger.Warn("catalog: cache read failed", "key", key, "error", err)
	}

	value, err := load()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("catalog: encode cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog: cache write failed", "key", key, "error", err)
	}
	return json.Unmarshal(encoded, dst)
}
