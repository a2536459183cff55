package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/logger"
)

// Tier names a cache namespace with its own TTL. Original-text artifacts are
// the most stable and get the longest retention; contextual segment
// embeddings mix in per-request context and age out faster.
type Tier string

const (
	TierSegments          Tier = "segments"
	TierEmbeddingOriginal Tier = "embedding_original"
	TierEmbeddingSegment  Tier = "embedding_segment"
)

const (
	segmentsTTL          = 30 * 24 * time.Hour
	embeddingOriginalTTL = 30 * 24 * time.Hour
	embeddingSegmentTTL  = 7 * 24 * time.Hour
	synonymsTTL          = 7 * 24 * time.Hour

	profileCacheTTL       = 24 * time.Hour
	profileFreshnessLimit = 6 * time.Hour
)

// profileWindows are the day windows whose cached profiles are deleted when
// a new record lands for a user. Other windows age out via the freshness
// check.
var profileWindows = []int{7, 30, 90}

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (t Tier) ttl() time.Duration {
	switch t {
	case TierSegments:
		return segmentsTTL
	case TierEmbeddingOriginal:
		return embeddingOriginalTTL
	default:
		return embeddingSegmentTTL
	}
}

func tierKey(tier Tier, contentHash string) string {
	return fmt.Sprintf("%s_%s", tier, contentHash)
}

// SetJSON stores any value under a tiered, content-addressed key.
func (c *Client) SetJSON(ctx context.Context, tier Tier, contentHash string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	key := tierKey(tier, contentHash)
	err = c.client.Set(ctx, key, data, tier.ttl()).Err()
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", tier.ttl()))
	return nil
}

// GetJSON loads a tiered entry into out. Returns false on a miss.
func (c *Client) GetJSON(ctx context.Context, tier Tier, contentHash string, out interface{}) (bool, error) {
	key := tierKey(tier, contentHash)
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues(string(tier)).Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	metrics.CacheHits.WithLabelValues(string(tier)).Inc()
	logger.Debug("Cache hit", zap.String("key", key))
	return true, nil
}

func (c *Client) SetEmbedding(ctx context.Context, tier Tier, textHash string, embedding []float64) error {
	return c.SetJSON(ctx, tier, textHash, embedding)
}

func (c *Client) GetEmbedding(ctx context.Context, tier Tier, textHash string) ([]float64, bool, error) {
	var embedding []float64
	found, err := c.GetJSON(ctx, tier, textHash, &embedding)
	if err != nil || !found {
		return nil, false, err
	}
	return embedding, true, nil
}

func (c *Client) SetSynonyms(ctx context.Context, wordKey string, synonyms []string) error {
	data, err := json.Marshal(synonyms)
	if err != nil {
		return fmt.Errorf("failed to marshal synonyms: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("word_%s", wordKey), data, synonymsTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set synonym cache: %w", err)
	}
	return nil
}

func (c *Client) GetSynonyms(ctx context.Context, wordKey string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("word_%s", wordKey)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get synonym cache: %w", err)
	}

	var synonyms []string
	if err := json.Unmarshal(data, &synonyms); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal synonyms: %w", err)
	}
	return synonyms, true, nil
}

type profileEnvelope struct {
	CachedAt int64           `json:"cached_at"`
	Data     json.RawMessage `json:"data"`
}

func profileKey(userID string, days int) string {
	return fmt.Sprintf("profile_cache_%s_%d", userID, days)
}

// SetProfile caches a computed profile for (user, window). The store TTL is
// 24h; readers apply a tighter 6h freshness check on top.
func (c *Client) SetProfile(ctx context.Context, userID string, days int, profile interface{}) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	envelope, err := json.Marshal(profileEnvelope{
		CachedAt: time.Now().Unix(),
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal profile envelope: %w", err)
	}

	err = c.client.Set(ctx, profileKey(userID, days), envelope, profileCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}

	logger.Debug("Profile cached", zap.String("user_id", userID), zap.Int("days", days))
	return nil
}

// GetProfile returns a cached profile only if it was written within the
// freshness window.
func (c *Client) GetProfile(ctx context.Context, userID string, days int, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, profileKey(userID, days)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached profile: %w", err)
	}

	var envelope profileEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return false, fmt.Errorf("failed to unmarshal profile envelope: %w", err)
	}

	if time.Since(time.Unix(envelope.CachedAt, 0)) > profileFreshnessLimit {
		return false, nil
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached profile: %w", err)
	}

	logger.Debug("Profile cache hit", zap.String("user_id", userID), zap.Int("days", days))
	return true, nil
}

// InvalidateProfiles drops the cached profiles for a user across the
// standard day windows. Called after every record write.
func (c *Client) InvalidateProfiles(ctx context.Context, userID string) error {
	for _, days := range profileWindows {
		if err := c.client.Del(ctx, profileKey(userID, days)).Err(); err != nil {
			logger.Warn("Failed to invalidate cached profile",
				zap.String("user_id", userID),
				zap.Int("days", days),
				zap.Error(err),
			)
		}
	}
	return nil
}
