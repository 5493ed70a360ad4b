package models

import (
	"strings"
	"time"
)

// LearnedAlias tên gọi khác của một đơn vị hành chính, bổ sung ngoài dataset
type LearnedAlias struct {
	AdminID    string    `bson:"admin_id" json:"admin_id"`       // Mã đơn vị hành chính
	Alias      string    `bson:"alias" json:"alias"`             // Tên gọi khác, giữ nguyên dấu
	AliasKey   string    `bson:"alias_key" json:"alias_key"`     // Khóa ASCII để chống trùng
	Source     string    `bson:"source" json:"source"`           // Nguồn (manual/auto_learned)
	Confidence float64   `bson:"confidence" json:"confidence"`   // Độ tin cậy
	UsageCount int       `bson:"usage_count" json:"usage_count"` // Số lần sử dụng
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	LastUsed   time.Time `bson:"last_used" json:"last_used"`
}

// Source constants
const (
	SourceManual      = "manual"
	SourceAutoLearned = "auto_learned"
)

// NewLearnedAlias tạo mới một LearnedAlias
func NewLearnedAlias(adminID, alias, aliasKey, source string) *LearnedAlias {
	now := time.Now()
	return &LearnedAlias{
		AdminID:    strings.TrimSpace(adminID),
		Alias:      strings.TrimSpace(alias),
		AliasKey:   aliasKey,
		Source:     source,
		Confidence: 0.8, // Độ tin cậy mặc định
		UsageCount: 1,
		CreatedAt:  now,
		LastUsed:   now,
	}
}

// IsValidSource kiểm tra source có hợp lệ không
func (la *LearnedAlias) IsValidSource() bool {
	return la.Source == SourceManual || la.Source == SourceAutoLearned
}

// IsHighConfidence kiểm tra có độ tin cậy cao không
func (la *LearnedAlias) IsHighConfidence() bool {
	return la.Confidence >= 0.8
}

// GroupAliases gom alias theo admin_id, bỏ alias có độ tin cậy thấp
func GroupAliases(aliases []LearnedAlias) map[string][]string {
	grouped := make(map[string][]string)
	for _, a := range aliases {
		if a.AdminID == "" || a.Alias == "" || !a.IsHighConfidence() {
			continue
		}
		grouped[a.AdminID] = append(grouped[a.AdminID], a.Alias)
	}
	return grouped
}
