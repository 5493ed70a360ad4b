package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/address-resolver/app/models"
)

type cacheEntry struct {
	result    *models.AddressResult
	expiresAt time.Time
}

// CacheService cache in-memory LRU có TTL
type CacheService struct {
	lru *expirable.LRU[string, cacheEntry]
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService tạo mới CacheService, size <= 0 là không giới hạn số phần tử
func NewCacheService(size int, ttl time.Duration) *CacheService {
	return &CacheService{
		lru: expirable.NewLRU[string, cacheEntry](size, nil, ttl),
		ttl: ttl,
	}
}

func (cs *CacheService) Name() string { return "memory" }

// Get lấy kết quả từ cache
func (cs *CacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	entry, ok := cs.lru.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return entry.result.Clone(), true, nil
}

// Set lưu kết quả vào cache
func (cs *CacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	cs.lru.Add(key, cacheEntry{result: result.Clone(), expiresAt: time.Now().Add(cs.ttl)})
	return nil
}

// Delete xóa item khỏi cache
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.lru.Remove(key)
	return nil
}

// Clear xóa toàn bộ cache
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.lru.Purge()
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

// InvalidateByGazetteerVersion xóa các kết quả của gazetteer version cũ
func (cs *CacheService) InvalidateByGazetteerVersion(ctx context.Context, currentVersion string) error {
	for _, key := range cs.lru.Keys() {
		if entry, ok := cs.lru.Peek(key); ok && entry.result.GazetteerVersion != currentVersion {
			cs.lru.Remove(key)
		}
	}
	return nil
}

// GetStats lấy thống kê cache
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		Backend:    cs.Name(),
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.lru.Len()),
	}, nil
}

// Exists kiểm tra key có tồn tại không, không cập nhật thứ tự LRU
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	return cs.lru.Contains(key), nil
}

// GetTTL lấy TTL còn lại của key
func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	entry, ok := cs.lru.Peek(key)
	if !ok {
		return 0, nil
	}
	remaining := time.Until(entry.expiresAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close không cần thiết cho in-memory cache
func (cs *CacheService) Close() error {
	return nil
}
