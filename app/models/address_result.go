package models

import "github.com/address-resolver/internal/normalizer"

// AddressResult kết quả parse địa chỉ
type AddressResult struct {
	Raw              string              `json:"raw" bson:"raw"`                             // Địa chỉ gốc
	Normalized       string              `json:"normalized" bson:"normalized"`               // Văn bản đã gộp khoảng trắng
	RawFingerprint   string              `json:"raw_fingerprint" bson:"raw_fingerprint"`     // Fingerprint của địa chỉ + gazetteer version
	GazetteerVersion string              `json:"gazetteer_version" bson:"gazetteer_version"` // Phiên bản gazetteer
	Status           string              `json:"status" bson:"status"`                       // matched, partial, unmatched
	Score            float64             `json:"score" bson:"score"`                         // Điểm của giả thuyết tốt nhất
	CanonicalText    string              `json:"canonical_text" bson:"canonical_text"`       // Tên chuẩn các cấp, từ dưới lên
	AdminPath        []AdminRef          `json:"admin_path" bson:"admin_path"`               // Các cấp, từ cụ thể nhất lên cấp 1
	Components       AddressComponents   `json:"components" bson:"components"`
	Residual         string              `json:"residual" bson:"residual"`                   // Phần địa chỉ chưa map được
	Signals          *normalizer.Signals `json:"signals,omitempty" bson:"signals,omitempty"` // Số nhà, đường...
	Debug            *DebugInfo          `json:"debug,omitempty" bson:"-"`
}

// AdminRef tham chiếu tới một đơn vị hành chính
type AdminRef struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Type  string `json:"type" bson:"type"`
	Level int    `json:"level" bson:"level"` // 1=tỉnh, 2=huyện, 3=xã
}

// AddressComponents các cấp hành chính theo tên
type AddressComponents struct {
	Ward     *AdminRef `json:"ward,omitempty" bson:"ward,omitempty"`         // Phường/xã
	District *AdminRef `json:"district,omitempty" bson:"district,omitempty"` // Quận/huyện
	Province *AdminRef `json:"province,omitempty" bson:"province,omitempty"` // Tỉnh/thành phố
}

// DebugInfo chi tiết cách resolve, chỉ trả về khi request bật debug
type DebugInfo struct {
	Entity    string        `json:"entity"`
	Scores    []float64     `json:"scores"`
	Remaining string        `json:"remaining"`
	Segments  []SegmentInfo `json:"segments"`
}

// SegmentInfo một đoạn địa chỉ đã khớp
type SegmentInfo struct {
	Matched   string `json:"matched"`
	Canonical string `json:"canonical"`
}

// Status constants
const (
	StatusMatched   = "matched"
	StatusPartial   = "partial"
	StatusUnmatched = "unmatched"
)

// IsValidStatus kiểm tra status có hợp lệ không
func (ar *AddressResult) IsValidStatus() bool {
	switch ar.Status {
	case StatusMatched, StatusPartial, StatusUnmatched:
		return true
	}
	return false
}

// IsResolved kiểm tra đã resolve được ít nhất một cấp
func (ar *AddressResult) IsResolved() bool {
	return len(ar.AdminPath) > 0
}

// Clone bản sao để trả cho caller, tránh sửa dữ liệu trong cache
func (ar *AddressResult) Clone() *AddressResult {
	if ar == nil {
		return nil
	}
	c := *ar
	c.AdminPath = append([]AdminRef(nil), ar.AdminPath...)
	if ar.Signals != nil {
		s := *ar.Signals
		c.Signals = &s
	}
	c.Debug = nil
	return &c
}
