package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/internal/normalizer"
)

const addressReviewCollection = "address_review"

var (
	ErrReviewNotFound = errors.New("review không tồn tại")
	ErrReviewClosed   = errors.New("review đã được xử lý")
	ErrEmptyAlias     = errors.New("alias không được để trống")
)

// ReviewQueue nhận các kết quả cần người review
type ReviewQueue interface {
	Enqueue(ctx context.Context, result *models.AddressResult) error
}

// ReviewService hàng đợi review trên collection address_review.
// Review được duyệt sinh ra learned alias cho lần load gazetteer sau.
type ReviewService struct {
	collection *mongo.Collection
	aliases    AliasStore
	gazetteer  *GazetteerService
	logger     *zap.Logger
}

// NewReviewService tạo mới ReviewService và đảm bảo indexes
func NewReviewService(db *mongo.Database, aliases AliasStore, gazetteer *GazetteerService, logger *zap.Logger) (*ReviewService, error) {
	collection := db.Collection(addressReviewCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "raw_fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("không thể tạo indexes cho %s: %w", addressReviewCollection, err)
	}

	return &ReviewService{
		collection: collection,
		aliases:    aliases,
		gazetteer:  gazetteer,
		logger:     logger,
	}, nil
}

// Enqueue thêm kết quả vào hàng đợi, mỗi fingerprint một review
func (rs *ReviewService) Enqueue(ctx context.Context, result *models.AddressResult) error {
	review := models.NewAddressReview(*result)
	_, err := rs.collection.UpdateOne(ctx,
		bson.M{"raw_fingerprint": review.RawFingerprint},
		bson.M{"$setOnInsert": review},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("lỗi thêm review: %w", err)
	}
	return nil
}

// List lấy review theo trạng thái (rỗng = mọi trạng thái), mới nhất trước
func (rs *ReviewService) List(ctx context.Context, status string, limit, offset int) ([]models.AddressReview, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := rs.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("lỗi đếm review: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := rs.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("lỗi query review: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.AddressReview{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("lỗi decode review: %w", err)
	}
	return reviews, total, nil
}

// Approve gán đơn vị đúng cho review và lưu alias học được
func (rs *ReviewService) Approve(ctx context.Context, id, reviewerID, adminID, alias string) (*models.AddressReview, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, ErrEmptyAlias
	}
	if _, err := rs.gazetteer.Lookup(adminID); err != nil {
		return nil, err
	}

	review, err := rs.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	review.Approve(reviewerID, adminID, alias)

	learned := models.NewLearnedAlias(adminID, alias, normalizer.ASCIIKey(alias), models.SourceManual)
	if err := rs.aliases.Add(ctx, learned); err != nil {
		return nil, err
	}
	if err := rs.save(ctx, review); err != nil {
		return nil, err
	}

	rs.logger.Info("Đã duyệt review",
		zap.String("review_id", id),
		zap.String("admin_id", adminID),
		zap.String("alias", alias))
	return review, nil
}

// Reject từ chối review
func (rs *ReviewService) Reject(ctx context.Context, id, reviewerID string) (*models.AddressReview, error) {
	review, err := rs.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	review.Reject(reviewerID)
	if err := rs.save(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (rs *ReviewService) pending(ctx context.Context, id string) (*models.AddressReview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	var review models.AddressReview
	err = rs.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc review: %w", err)
	}
	if !review.IsPending() {
		return nil, ErrReviewClosed
	}
	return &review, nil
}

func (rs *ReviewService) save(ctx context.Context, review *models.AddressReview) error {
	if _, err := rs.collection.ReplaceOne(ctx, bson.M{"_id": review.ID}, review); err != nil {
		return fmt.Errorf("lỗi cập nhật review: %w", err)
	}
	return nil
}
