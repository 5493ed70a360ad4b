package services

import (
	"context"
	"time"

	"github.com/address-resolver/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	Backend    string  `json:"backend"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService cache kết quả parse, key là fingerprint (đã gồm gazetteer version)
type ICacheService interface {
	// Name tên backend, dùng cho metrics và log
	Name() string

	// Get lấy kết quả từ cache
	Get(ctx context.Context, key string) (*models.AddressResult, bool, error)

	// Set lưu kết quả vào cache
	Set(ctx context.Context, key string, result *models.AddressResult) error

	// Delete xóa kết quả khỏi cache
	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// InvalidateByGazetteerVersion xóa các kết quả không thuộc gazetteer version hiện tại
	InvalidateByGazetteerVersion(ctx context.Context, currentVersion string) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

// hitRate tỷ lệ hit, 0 khi chưa có request
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
