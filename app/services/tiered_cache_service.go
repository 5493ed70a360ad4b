package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/address-resolver/app/models"
)

// TieredCacheService ghép nhiều cache theo thứ tự từ nhanh tới chậm (memory, Redis, MongoDB).
// Đọc lần lượt từng tầng, hit ở tầng dưới thì ghi ngược lên các tầng trên.
type TieredCacheService struct {
	layers []ICacheService
	logger *zap.Logger
}

// NewTieredCacheService tạo mới TieredCacheService
func NewTieredCacheService(logger *zap.Logger, layers ...ICacheService) *TieredCacheService {
	return &TieredCacheService{layers: layers, logger: logger}
}

func (tcs *TieredCacheService) Name() string { return "tiered" }

// Get lấy kết quả từ tầng đầu tiên có key
func (tcs *TieredCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	var lastErr error
	for i, layer := range tcs.layers {
		result, found, err := layer.Get(ctx, key)
		if err != nil {
			tcs.logger.Warn("Lỗi cache, thử tầng tiếp theo",
				zap.String("backend", layer.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		if !found {
			continue
		}

		for _, upper := range tcs.layers[:i] {
			if err := upper.Set(ctx, key, result); err != nil {
				tcs.logger.Warn("Lỗi ghi ngược cache",
					zap.String("backend", upper.Name()), zap.Error(err))
			}
		}
		return result, true, nil
	}

	if lastErr != nil && len(tcs.layers) > 0 {
		return nil, false, fmt.Errorf("cache miss, có tầng lỗi: %w", lastErr)
	}
	return nil, false, nil
}

// each chạy fn song song trên mọi tầng, trả về lỗi đầu tiên
func (tcs *TieredCacheService) each(ctx context.Context, fn func(ctx context.Context, layer ICacheService) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, layer := range tcs.layers {
		layer := layer
		g.Go(func() error {
			if err := fn(gctx, layer); err != nil {
				return fmt.Errorf("%s: %w", layer.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Set lưu kết quả vào mọi tầng
func (tcs *TieredCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	return tcs.each(ctx, func(ctx context.Context, layer ICacheService) error {
		return layer.Set(ctx, key, result)
	})
}

// Delete xóa key khỏi mọi tầng
func (tcs *TieredCacheService) Delete(ctx context.Context, key string) error {
	return tcs.each(ctx, func(ctx context.Context, layer ICacheService) error {
		return layer.Delete(ctx, key)
	})
}

// Clear xóa mọi tầng
func (tcs *TieredCacheService) Clear(ctx context.Context) error {
	if err := tcs.each(ctx, func(ctx context.Context, layer ICacheService) error {
		return layer.Clear(ctx)
	}); err != nil {
		return err
	}
	tcs.logger.Info("Đã clear tiered cache", zap.Int("layers", len(tcs.layers)))
	return nil
}

// InvalidateByGazetteerVersion invalidate mọi tầng
func (tcs *TieredCacheService) InvalidateByGazetteerVersion(ctx context.Context, currentVersion string) error {
	return tcs.each(ctx, func(ctx context.Context, layer ICacheService) error {
		return layer.InvalidateByGazetteerVersion(ctx, currentVersion)
	})
}

// GetStats cộng dồn thống kê các tầng. Số item lấy từ tầng lớn nhất.
func (tcs *TieredCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	combined := &CacheStats{Backend: tcs.Name()}
	var lastErr error
	ok := 0

	for _, layer := range tcs.layers {
		stats, err := layer.GetStats(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		ok++
		combined.TotalHits += stats.TotalHits
		if stats.TotalItems > combined.TotalItems {
			combined.TotalItems = stats.TotalItems
		}
	}
	if ok == 0 && lastErr != nil {
		return nil, fmt.Errorf("không lấy được thống kê cache: %w", lastErr)
	}

	// miss thực sự là miss ở tầng cuối cùng
	if n := len(tcs.layers); n > 0 {
		if last, err := tcs.layers[n-1].GetStats(ctx); err == nil {
			combined.TotalMiss = last.TotalMiss
		}
	}
	combined.HitRate = hitRate(combined.TotalHits, combined.TotalMiss)
	return combined, nil
}

// Exists kiểm tra key ở bất kỳ tầng nào
func (tcs *TieredCacheService) Exists(ctx context.Context, key string) (bool, error) {
	var lastErr error
	for _, layer := range tcs.layers {
		exists, err := layer.Exists(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}
		if exists {
			return true, nil
		}
	}
	return false, lastErr
}

// GetTTL lấy TTL ở tầng đầu tiên có key
func (tcs *TieredCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	for _, layer := range tcs.layers {
		if exists, err := layer.Exists(ctx, key); err == nil && exists {
			return layer.GetTTL(ctx, key)
		}
	}
	return 0, nil
}

// Close đóng mọi tầng
func (tcs *TieredCacheService) Close() error {
	return tcs.each(context.Background(), func(_ context.Context, layer ICacheService) error {
		return layer.Close()
	})
}
