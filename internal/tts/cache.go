package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss возвращается кэшем, если ключа нет
var ErrCacheMiss = errors.New("аудио нет в кэше")

// AudioCache хранит готовое аудио по ключу
type AudioCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// RedisCache - AudioCache поверх Redis
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache подключается к Redis по URL вида redis://host:6379/0
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	return &RedisCache{client: client, prefix: "tts:"}, nil
}

// Get возвращает аудио или ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}
	return data, nil
}

// Set сохраняет аудио на ttl
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedSynthesizer отдает повторные озвучки из кэша.
// Ошибки кэша не прерывают синтез, только логируются.
type CachedSynthesizer struct {
	next   Synthesizer
	cache  AudioCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSynthesizer оборачивает синтезатор кэшем
func NewCachedSynthesizer(next Synthesizer, cache AudioCache, ttl time.Duration, logger *zap.Logger) *CachedSynthesizer {
	return &CachedSynthesizer{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Synthesize ищет аудио в кэше и обращается к синтезатору при промахе
func (c *CachedSynthesizer) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(req)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug("аудио взято из кэша", zap.String("key", key))
		return &Audio{Data: data, ContentType: ContentTypeWAV, Provider: "cache", Cached: true}, nil
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn("ошибка чтения кэша аудио", zap.Error(err))
	}

	audio, err := c.next.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, audio.Data, c.ttl); err != nil {
		c.logger.Warn("ошибка записи кэша аудио", zap.Error(err))
	}
	return audio, nil
}

func cacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Voice))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(req.Speed, 'f', 3, 64)))
	h.Write([]byte{0})
	h.Write([]byte(req.Text))
	return hex.EncodeToString(h.Sum(nil))
}
