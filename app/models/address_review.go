package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressReview địa chỉ resolve chưa trọn vẹn, chờ người review gán đơn vị đúng
type AddressReview struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawFingerprint   string             `bson:"raw_fingerprint" json:"raw_fingerprint"`
	RawAddress       string             `bson:"raw_address" json:"raw_address"`               // Địa chỉ gốc
	Normalized       string             `bson:"normalized" json:"normalized"`                 // Văn bản đã chuẩn hóa
	AutoParsedResult AddressResult      `bson:"auto_parsed_result" json:"auto_parsed_result"` // Kết quả parse tự động
	Score            float64            `bson:"score" json:"score"`
	Status           string             `bson:"status" json:"status"`                           // Trạng thái review
	AdminID          string             `bson:"admin_id,omitempty" json:"admin_id,omitempty"`   // Đơn vị đúng do người review gán
	Alias            string             `bson:"alias,omitempty" json:"alias,omitempty"`         // Alias được học từ review
	ReviewerID       string             `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt       *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// Status constants
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// NewAddressReview tạo mới một AddressReview từ kết quả parse
func NewAddressReview(result AddressResult) *AddressReview {
	return &AddressReview{
		RawFingerprint:   result.RawFingerprint,
		RawAddress:       result.Raw,
		Normalized:       result.Normalized,
		AutoParsedResult: result,
		Score:            result.Score,
		Status:           ReviewStatusPending,
		CreatedAt:        time.Now(),
	}
}

// IsValidStatus kiểm tra status có hợp lệ không
func (ar *AddressReview) IsValidStatus() bool {
	switch ar.Status {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Approve gán đơn vị đúng và alias học được
func (ar *AddressReview) Approve(reviewerID, adminID, alias string) {
	ar.Status = ReviewStatusApproved
	ar.ReviewerID = reviewerID
	ar.AdminID = adminID
	ar.Alias = alias
	now := time.Now()
	ar.ReviewedAt = &now
}

// Reject từ chối, địa chỉ không cần học thêm
func (ar *AddressReview) Reject(reviewerID string) {
	ar.Status = ReviewStatusRejected
	ar.ReviewerID = reviewerID
	now := time.Now()
	ar.ReviewedAt = &now
}

// IsPending kiểm tra có đang chờ review không
func (ar *AddressReview) IsPending() bool {
	return ar.Status == ReviewStatusPending
}
