package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

const learnedAliasesCollection = "learned_aliases"

// AliasStore nơi lưu alias học được, được gộp vào gazetteer khi load
type AliasStore interface {
	List(ctx context.Context) ([]models.LearnedAlias, error)
	Add(ctx context.Context, alias *models.LearnedAlias) error
}

// MongoAliasStore AliasStore trên collection learned_aliases
type MongoAliasStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoAliasStore tạo mới MongoAliasStore và đảm bảo index (admin_id, alias_key) duy nhất
func NewMongoAliasStore(db *mongo.Database, logger *zap.Logger) (*MongoAliasStore, error) {
	collection := db.Collection(learnedAliasesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "admin_id", Value: 1}, {Key: "alias_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("không thể tạo index cho %s: %w", learnedAliasesCollection, err)
	}

	return &MongoAliasStore{collection: collection, logger: logger}, nil
}

// List lấy toàn bộ alias
func (s *MongoAliasStore) List(ctx context.Context) ([]models.LearnedAlias, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("lỗi lấy learned_aliases: %w", err)
	}
	defer cursor.Close(ctx)

	var aliases []models.LearnedAlias
	if err := cursor.All(ctx, &aliases); err != nil {
		return nil, fmt.Errorf("lỗi decode learned_aliases: %w", err)
	}
	return aliases, nil
}

// Add thêm alias, alias đã có thì tăng số lần sử dụng
func (s *MongoAliasStore) Add(ctx context.Context, alias *models.LearnedAlias) error {
	filter := bson.M{"admin_id": alias.AdminID, "alias_key": alias.AliasKey}
	update := bson.M{
		"$setOnInsert": bson.M{
			"alias":      alias.Alias,
			"source":     alias.Source,
			"confidence": alias.Confidence,
			"created_at": alias.CreatedAt,
		},
		"$set": bson.M{"last_used": time.Now()},
		"$inc": bson.M{"usage_count": 1},
	}

	if _, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("lỗi lưu learned alias: %w", err)
	}

	s.logger.Info("Đã lưu learned alias",
		zap.String("admin_id", alias.AdminID),
		zap.String("alias", alias.Alias),
		zap.String("source", alias.Source))
	return nil
}
