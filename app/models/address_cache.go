package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache document cache kết quả parse trong MongoDB
type AddressCache struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawFingerprint   string             `bson:"raw_fingerprint" json:"raw_fingerprint"`     // Fingerprint của địa chỉ
	RawAddress       string             `bson:"raw_address" json:"raw_address"`             // Địa chỉ gốc
	ParsedResult     AddressResult      `bson:"parsed_result" json:"parsed_result"`         // Kết quả parse
	Status           string             `bson:"status" json:"status"`                       // Trạng thái kết quả
	GazetteerVersion string             `bson:"gazetteer_version" json:"gazetteer_version"` // Phiên bản gazetteer
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`               // Thời gian tạo
	ExpiresAt        time.Time          `bson:"expires_at" json:"expires_at"`               // TTL index
	LastAccessed     time.Time          `bson:"last_accessed" json:"last_accessed"`         // Lần truy cập cuối
	AccessCount      int                `bson:"access_count" json:"access_count"`           // Số lần truy cập
}

// NewAddressCache tạo mới một AddressCache
func NewAddressCache(result AddressResult, ttl time.Duration) *AddressCache {
	now := time.Now()
	return &AddressCache{
		RawFingerprint:   result.RawFingerprint,
		RawAddress:       result.Raw,
		ParsedResult:     result,
		Status:           result.Status,
		GazetteerVersion: result.GazetteerVersion,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
		LastAccessed:     now,
		AccessCount:      1,
	}
}

// UpdateAccess cập nhật thông tin truy cập
func (ac *AddressCache) UpdateAccess() {
	ac.LastAccessed = time.Now()
	ac.AccessCount++
}

// IsExpired kiểm tra cache đã hết hạn chưa
func (ac *AddressCache) IsExpired() bool {
	return !ac.ExpiresAt.IsZero() && time.Now().After(ac.ExpiresAt)
}

// IsValidGazetteerVersion kiểm tra phiên bản gazetteer có khớp không
func (ac *AddressCache) IsValidGazetteerVersion(currentVersion string) bool {
	return ac.GazetteerVersion == currentVersion
}
