package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/constants"
	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/pkg/errors"
)

// CacheService wraps Redis for the extraction cache: a re-uploaded card
// whose OCR text is byte-identical skips the structuring call entirely.
type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

const extractionKeyPrefix = "namecard:extract:"

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

// ExtractionKey derives the cache key from raw OCR text. SHA-1 keeps keys
// short and uniform; the text itself can be kilobytes of Korean.
func ExtractionKey(rawText string) string {
	sum := sha1.Sum([]byte(rawText))
	return extractionKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // Key doesn't exist - not an error
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

// GetExtraction looks up a cached contact for the given OCR text. A miss is
// (zero, false), never an error; cache trouble must not fail the pipeline.
func (c *CacheService) GetExtraction(ctx context.Context, rawText string) (domain.Contact, bool) {
	key := ExtractionKey(rawText)

	var cached *domain.Contact
	if err := c.Get(ctx, key, &cached); err != nil {
		c.logger.Debug("Extraction cache miss or error", zap.String("key", key))
		return domain.Contact{}, false
	}
	if cached == nil {
		return domain.Contact{}, false
	}

	return *cached, true
}

// SetExtraction stores an extraction result. Errors are logged and dropped.
func (c *CacheService) SetExtraction(ctx context.Context, rawText string, contact domain.Contact) {
	key := ExtractionKey(rawText)

	if err := c.Set(ctx, key, contact, constants.CacheTTL.Extraction); err != nil {
		c.logger.Error("Failed to cache extraction", zap.String("key", key), zap.Error(err))
	}
}

func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *CacheService) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for Redis to be ready")
		case <-ticker.C:
			if c.IsConnected(ctx) {
				return nil
			}
		}
	}
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}
