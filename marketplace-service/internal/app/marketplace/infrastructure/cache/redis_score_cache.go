package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stilnovo/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName      = "marketplace-service"
	scoreKeyPrefix   = "reco:scores"
	versionKeyPrefix = "reco:scores:ver"
	minVersionTTL    = 24 * time.Hour
)

// RedisScoreCache кеширует очки аккаунта по категориям с TTL
// Инвалидируется при каждом новом взаимодействии аккаунта; каждая инвалидация
// увеличивает версию, и запись очков, посчитанных до нее, отбрасывается
type RedisScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisScoreCache(client *redis.Client, ttl time.Duration) *RedisScoreCache {
	return &RedisScoreCache{client: client, ttl: ttl}
}

func scoreKey(accountID uuid.UUID) string {
	return scoreKeyPrefix + ":" + accountID.String()
}

func versionKey(accountID uuid.UUID) string {
	return versionKeyPrefix + ":" + accountID.String()
}

// Get возвращает очки из кеша, found=false при промахе
func (c *RedisScoreCache) Get(ctx context.Context, accountID uuid.UUID) (map[string]int, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := c.client.Get(ctx, scoreKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, scoreKeyPrefix)
			return nil, false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, false, fmt.Errorf("failed to get scores from redis: %w", err)
	}

	var scores map[string]int
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal scores: %w", err)
	}
	if scores == nil {
		scores = map[string]int{}
	}

	metrics.RecordCacheHit(serviceName, scoreKeyPrefix)
	return scores, true, nil
}

// Version возвращает текущую версию очков аккаунта, 0 если инвалидаций не было
func (c *RedisScoreCache) Version(ctx context.Context, accountID uuid.UUID) (int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	version, err := c.client.Get(ctx, versionKey(accountID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return 0, fmt.Errorf("failed to get scores version: %w", err)
	}

	return version, nil
}

// Set сохраняет очки с TTL, только если версия не менялась с момента чтения
// stored=false - очки устарели и не записаны
func (c *RedisScoreCache) Set(ctx context.Context, accountID uuid.UUID, version int64, scores map[string]int) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(scores)
	if err != nil {
		return false, fmt.Errorf("failed to marshal scores: %w", err)
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(accountID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, scoreKey(accountID), data, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, versionKey(accountID))

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return false, fmt.Errorf("failed to set scores in redis: %w", err)
	}

	return stored, nil
}

// Invalidate удаляет очки аккаунта и увеличивает их версию
func (c *RedisScoreCache) Invalidate(ctx context.Context, accountID uuid.UUID) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(accountID))
		pipe.Expire(ctx, versionKey(accountID), max(c.ttl, minVersionTTL))
		pipe.Del(ctx, scoreKey(accountID))
		return nil
	})
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate scores: %w", err)
	}

	return nil
}
