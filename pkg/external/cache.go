package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const parseKeyPrefix = "care-router:parse:"

// ParseCache keeps symptom-parse results in two tiers: an in-process LRU for hot
// entries and an optional Redis tier shared between instances.
type ParseCache struct {
	memory     *lru.Cache
	redis      *redis.Client
	defaultTTL time.Duration
	now        func() time.Time
	logger     *logrus.Logger
}

// CachedFindings represents cached parse output with metadata
type CachedFindings struct {
	Data      []domain.Finding `json:"data"`
	CachedAt  time.Time        `json:"cached_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewParseCache creates the cache. The Redis tier is only connected when caching is
// enabled and a URL is configured.
func NewParseCache(config domain.CacheConfig, logger *logrus.Logger) (*ParseCache, error) {
	if logger == nil {
		logger = logrus.New()
	}
	size := config.MemorySize
	if size <= 0 {
		size = 256
	}
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	memory, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	c := &ParseCache{
		memory:     memory,
		defaultTTL: ttl,
		now:        time.Now,
		logger:     logger,
	}

	if !config.Enabled || config.RedisURL == "" {
		return c, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.redis = client
	return c, nil
}

// Get returns cached findings for the text and demographics
func (c *ParseCache) Get(ctx context.Context, text string, demographics domain.Demographics) ([]domain.Finding, bool, error) {
	key := parseKey(text, demographics)

	if v, ok := c.memory.Get(key); ok {
		cached := v.(CachedFindings)
		if c.now().Before(cached.ExpiresAt) {
			return cached.Data, true, nil
		}
		c.memory.Remove(key)
	}

	if c.redis == nil {
		return nil, false, nil
	}

	val, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get parse cache: %w", err)
	}

	var cached CachedFindings
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}
	if c.now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	c.memory.Add(key, cached)
	return cached.Data, true, nil
}

// Set stores findings; a zero ttl uses the configured default
func (c *ParseCache) Set(ctx context.Context, text string, demographics domain.Demographics, findings []domain.Finding, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	key := parseKey(text, demographics)
	now := c.now()
	cached := CachedFindings{
		Data:      findings,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	c.memory.Add(key, cached)

	if c.redis == nil {
		return nil
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal parse cache data: %w", err)
	}
	return c.redis.Set(ctx, key, data, ttl).Err()
}

// Len returns the number of entries in the memory tier
func (c *ParseCache) Len() int {
	return c.memory.Len()
}

// Close releases the Redis connection, if any
func (c *ParseCache) Close() error {
	c.memory.Purge()
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// parseKey normalises whitespace and case so trivially different inputs share an entry
func parseKey(text string, demographics domain.Demographics) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", normalized, demographics.Age, demographics.Sex)))
	return parseKeyPrefix + hex.EncodeToString(sum[:])
}
