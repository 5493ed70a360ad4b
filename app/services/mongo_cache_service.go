package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

const addressCacheCollection = "address_cache"

// MongoCacheService persistent cache trong collection address_cache.
// Hết hạn qua TTL index trên expires_at.
type MongoCacheService struct {
	collection *mongo.Collection
	ttl        time.Duration
	logger     *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMongoCacheService tạo mới MongoCacheService và đảm bảo indexes
func NewMongoCacheService(db *mongo.Database, ttl time.Duration, logger *zap.Logger) (*MongoCacheService, error) {
	collection := db.Collection(addressCacheCollection)

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "raw_fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "gazetteer_version", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		return nil, fmt.Errorf("không thể tạo indexes cho %s: %w", addressCacheCollection, err)
	}

	return &MongoCacheService{
		collection: collection,
		ttl:        ttl,
		logger:     logger,
	}, nil
}

func (mcs *MongoCacheService) Name() string { return "mongo" }

// Get lấy kết quả từ cache
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"raw_fingerprint": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		mcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lỗi query MongoDB cache: %w", err)
	}

	// TTL monitor của MongoDB chạy mỗi phút, document hết hạn có thể còn tồn tại
	if entry.IsExpired() {
		mcs.misses.Add(1)
		return nil, false, nil
	}

	mcs.hits.Add(1)
	go mcs.updateAccessStats(entry.RawFingerprint)
	return &entry.ParsedResult, true, nil
}

// Set lưu kết quả vào cache (upsert theo fingerprint)
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	entry := models.NewAddressCache(*result, mcs.ttl)
	entry.RawFingerprint = key

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"raw_fingerprint": key}, entry, opts); err != nil {
		return fmt.Errorf("lỗi lưu vào MongoDB cache: %w", err)
	}
	return nil
}

// Delete xóa kết quả khỏi cache
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"raw_fingerprint": key}); err != nil {
		return fmt.Errorf("lỗi xóa khỏi MongoDB cache: %w", err)
	}
	return nil
}

// Clear xóa tất cả cache
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("lỗi clear MongoDB cache: %w", err)
	}
	mcs.hits.Store(0)
	mcs.misses.Store(0)
	return nil
}

// InvalidateByGazetteerVersion xóa các document không thuộc version hiện tại
func (mcs *MongoCacheService) InvalidateByGazetteerVersion(ctx context.Context, currentVersion string) error {
	res, err := mcs.collection.DeleteMany(ctx, bson.M{"gazetteer_version": bson.M{"$ne": currentVersion}})
	if err != nil {
		return fmt.Errorf("lỗi invalidate cache theo gazetteer version: %w", err)
	}

	mcs.logger.Info("Đã invalidate MongoDB cache",
		zap.String("gazetteer_version", currentVersion),
		zap.Int64("deleted_count", res.DeletedCount))
	return nil
}

// GetStats lấy thống kê cache
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi đếm documents trong MongoDB cache: %w", err)
	}

	hits, misses := mcs.hits.Load(), mcs.misses.Load()
	return &CacheStats{
		Backend:    mcs.Name(),
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: count,
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	count, err := mcs.collection.CountDocuments(ctx, bson.M{"raw_fingerprint": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("lỗi check exists trong MongoDB: %w", err)
	}
	return count > 0, nil
}

// GetTTL lấy TTL còn lại của key theo expires_at
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	var entry struct {
		ExpiresAt time.Time `bson:"expires_at"`
	}
	opts := options.FindOne().SetProjection(bson.M{"expires_at": 1})
	err := mcs.collection.FindOne(ctx, bson.M{"raw_fingerprint": key}, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lỗi đọc TTL từ MongoDB: %w", err)
	}
	if remaining := time.Until(entry.ExpiresAt); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Close không đóng client, kết nối MongoDB do caller quản lý
func (mcs *MongoCacheService) Close() error {
	return nil
}

func (mcs *MongoCacheService) updateAccessStats(fingerprint string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"raw_fingerprint": fingerprint}, update); err != nil {
		mcs.logger.Warn("Lỗi update access stats", zap.Error(err))
	}
}
