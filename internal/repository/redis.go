package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
)

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	logx.Info().Str("addr", addr).Msg("Connected to Redis successfully")
	return client, nil
}

// RedisCommandStore keeps the latest command per device under device:{id}:command.
type RedisCommandStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCommandStore(rdb redis.Cmdable, ttl time.Duration) *RedisCommandStore {
	return &RedisCommandStore{rdb: rdb, ttl: ttl}
}

func commandKey(deviceID string) string {
	return fmt.Sprintf("device:%s:command", deviceID)
}

func (s *RedisCommandStore) SetCommand(ctx context.Context, deviceID string, cmd models.DeviceCommand) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	if err := s.rdb.Set(ctx, commandKey(deviceID), b, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("deviceId", deviceID).Msg("failed to store command in redis")
		return fmt.Errorf("store command for device %s: %w", deviceID, err)
	}
	return nil
}

func (s *RedisCommandStore) GetCommand(ctx context.Context, deviceID string) (*models.DeviceCommand, error) {
	b, err := s.rdb.Get(ctx, commandKey(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("deviceId", deviceID).Msg("failed to load command from redis")
		return nil, fmt.Errorf("load command for device %s: %w", deviceID, err)
	}
	var cmd models.DeviceCommand
	if err := json.Unmarshal(b, &cmd); err != nil {
		return nil, fmt.Errorf("unmarshal command for device %s: %w", deviceID, err)
	}
	return &cmd, nil
}

func (s *RedisCommandStore) DeleteCommand(ctx context.Context, deviceID string) error {
	if err := s.rdb.Del(ctx, commandKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("delete command for device %s: %w", deviceID, err)
	}
	return nil
}

// RedisQuotaCounter counts with INCR and refreshes the window with EXPIRE.
type RedisQuotaCounter struct {
	rdb redis.Cmdable
}

func NewRedisQuotaCounter(rdb redis.Cmdable) *RedisQuotaCounter {
	return &RedisQuotaCounter{rdb: rdb}
}

func (c *RedisQuotaCounter) Count(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read quota %s: %w", key, err)
	}
	return n, nil
}

func (c *RedisQuotaCounter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment quota %s: %w", key, err)
	}
	return incr.Val(), nil
}

var (
	_ CommandStore = (*RedisCommandStore)(nil)
	_ QuotaCounter = (*RedisQuotaCounter)(nil)
)
