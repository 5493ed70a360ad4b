package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

const redisKeyPrefix = "addr_resolver:"

// RedisCacheService cache service sử dụng Redis.
// Mỗi gazetteer version có một set chứa các key của nó để invalidate không cần SCAN toàn bộ.
type RedisCacheService struct {
	client redis.UniversalClient
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService tạo mới Redis cache service và kiểm tra kết nối
func NewRedisCacheService(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("lỗi parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("không thể kết nối Redis: %w", err)
	}

	return NewRedisCacheServiceWithClient(client, ttl, logger), nil
}

// NewRedisCacheServiceWithClient dùng client có sẵn (cluster, sentinel...)
func NewRedisCacheServiceWithClient(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisCacheService {
	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: redisKeyPrefix,
		ttl:    ttl,
	}
}

func (rcs *RedisCacheService) Name() string { return "redis" }

func (rcs *RedisCacheService) key(key string) string { return rcs.prefix + "r:" + key }

func (rcs *RedisCacheService) versionKey(version string) string { return rcs.prefix + "v:" + version }

// Get lấy kết quả từ cache
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	val, err := rcs.client.Get(ctx, rcs.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lỗi get từ Redis: %w", err)
	}

	var result models.AddressResult
	if err := json.Unmarshal(val, &result); err != nil {
		rcs.logger.Warn("Dữ liệu cache hỏng, xóa key", zap.String("key", key), zap.Error(err))
		_ = rcs.Delete(ctx, key)
		rcs.misses.Add(1)
		return nil, false, nil
	}

	rcs.hits.Add(1)
	return &result, true, nil
}

// Set lưu kết quả vào cache và đánh dấu key thuộc gazetteer version của kết quả
func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("lỗi marshal cache data: %w", err)
	}

	_, err = rcs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rcs.key(key), data, rcs.ttl)
		pipe.SAdd(ctx, rcs.versionKey(result.GazetteerVersion), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lỗi set vào Redis: %w", err)
	}
	return nil
}

// Delete xóa key khỏi cache
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	if err := rcs.client.Del(ctx, rcs.key(key)).Err(); err != nil {
		return fmt.Errorf("lỗi delete từ Redis: %w", err)
	}
	return nil
}

// Clear xóa toàn bộ key của service
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted, err := rcs.deleteMatching(ctx, rcs.prefix+"*")
	if err != nil {
		return err
	}
	rcs.hits.Store(0)
	rcs.misses.Store(0)
	rcs.logger.Info("Đã clear Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

// InvalidateByGazetteerVersion xóa key của mọi version khác currentVersion
func (rcs *RedisCacheService) InvalidateByGazetteerVersion(ctx context.Context, currentVersion string) error {
	current := rcs.versionKey(currentVersion)
	deleted := 0

	iter := rcs.client.Scan(ctx, 0, rcs.versionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		if setKey == current {
			continue
		}
		members, err := rcs.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return fmt.Errorf("lỗi đọc key của version %s: %w", strings.TrimPrefix(setKey, rcs.versionKey("")), err)
		}
		keys := make([]string, 0, len(members)+1)
		for _, m := range members {
			keys = append(keys, rcs.key(m))
		}
		keys = append(keys, setKey)
		if err := rcs.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("lỗi xóa key Redis: %w", err)
		}
		deleted += len(members)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("lỗi scan Redis: %w", err)
	}

	rcs.logger.Info("Đã invalidate Redis cache",
		zap.String("gazetteer_version", currentVersion),
		zap.Int("keys_deleted", deleted))
	return nil
}

func (rcs *RedisCacheService) deleteMatching(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	batch := make([]string, 0, 100)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := rcs.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("lỗi xóa key Redis: %w", err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := rcs.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("lỗi scan Redis: %w", err)
	}
	return deleted, flush()
}

// GetStats lấy thống kê cache
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := rcs.hits.Load(), rcs.misses.Load()

	var items int64
	iter := rcs.client.Scan(ctx, 0, rcs.key("*"), 500).Iterator()
	for iter.Next(ctx) {
		items++
	}
	if err := iter.Err(); err != nil {
		rcs.logger.Warn("Không thể đếm key Redis", zap.Error(err))
	}

	return &CacheStats{
		Backend:    rcs.Name(),
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: items,
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rcs.client.Exists(ctx, rcs.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTTL lấy TTL còn lại của key
func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rcs.client.TTL(ctx, rcs.key(key)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Close đóng kết nối Redis
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}
