// Package cache публикует кадры анализа в Redis
package cache

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"

	"github.com/idgaron/Capstone-Software/internal/metrics"
	"github.com/idgaron/Capstone-Software/internal/models"
)

const (
	// DefaultKeyPrefix префикс ключей по умолчанию
	DefaultKeyPrefix = "spectrum:"
	// DefaultTTL время жизни последнего кадра по умолчанию
	DefaultTTL = 5 * time.Minute
	// DefaultHistory количество кадров в истории по умолчанию
	DefaultHistory = 100
)

// Config задает подключение к Redis и раскладку ключей
type Config struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
	History   int64         `yaml:"history"`
	Channel   string        `yaml:"channel"`
}

func (c *Config) applyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.History <= 0 {
		c.History = DefaultHistory
	}
}

// RedisCache хранит последний кадр, ограниченную историю и публикует кадры в канал
type RedisCache struct {
	client *redis.Client
	cfg    Config
}

// NewRedisCache создает новое подключение к Redis
func NewRedisCache(ctx context.Context, cfg Config) (*RedisCache, error) {
	cfg.applyDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connect to redis at %s", cfg.Addr)
	}

	return &RedisCache{
		client: client,
		cfg:    cfg,
	}, nil
}

// LatestKey ключ последнего кадра
func (r *RedisCache) LatestKey() string {
	return r.cfg.KeyPrefix + "frame:latest"
}

// HistoryKey ключ списка последних кадров
func (r *RedisCache) HistoryKey() string {
	return r.cfg.KeyPrefix + "frames"
}

// Update сохраняет кадр одним пайплайном: последний кадр, история и публикация
func (r *RedisCache) Update(ctx context.Context, frame models.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return errors.Wrap(err, "marshal frame")
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.LatestKey(), data, r.cfg.TTL)
	pipe.LPush(ctx, r.HistoryKey(), data)
	pipe.LTrim(ctx, r.HistoryKey(), 0, r.cfg.History-1)
	if r.cfg.Channel != "" {
		pipe.Publish(ctx, r.cfg.Channel, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		metrics.CacheWrites.WithLabelValues("error").Inc()
		return errors.Wrap(err, "cache frame")
	}

	metrics.CacheWrites.WithLabelValues("ok").Inc()
	return nil
}

// LatestFrame возвращает последний сохраненный кадр; ok=false, если его нет
func (r *RedisCache) LatestFrame(ctx context.Context) (models.Frame, bool, error) {
	data, err := r.client.Get(ctx, r.LatestKey()).Bytes()
	if err == redis.Nil {
		return models.Frame{}, false, nil
	}
	if err != nil {
		return models.Frame{}, false, errors.Wrap(err, "get latest frame")
	}

	var frame models.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return models.Frame{}, false, errors.Wrap(err, "unmarshal latest frame")
	}
	return frame, true, nil
}

// History возвращает до count последних кадров, от нового к старому
func (r *RedisCache) History(ctx context.Context, count int64) ([]models.Frame, error) {
	data, err := r.client.LRange(ctx, r.HistoryKey(), 0, count-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "get frame history")
	}

	frames := make([]models.Frame, 0, len(data))
	for _, d := range data {
		var f models.Frame
		if err := json.Unmarshal([]byte(d), &f); err != nil {
			continue
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// Ping проверяет соединение с Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение
func (r *RedisCache) Close() error {
	return r.client.Close()
}
