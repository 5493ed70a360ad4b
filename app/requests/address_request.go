package requests

// ParseAddressRequest request parse địa chỉ đơn lẻ
type ParseAddressRequest struct {
	Address string       `json:"address" binding:"required"` // Địa chỉ cần parse
	Options ParseOptions `json:"options,omitempty"`          // Tùy chọn parse
}

// ParseOptions tùy chọn parse
type ParseOptions struct {
	Levels   int  `json:"levels,omitempty"`    // Số cấp trả về tính từ cấp 1 (0 = tất cả)
	UseCache bool `json:"use_cache,omitempty"` // Có sử dụng cache không
	Debug    bool `json:"debug,omitempty"`     // Trả về chi tiết điểm và cách tách địa chỉ
}

// DefaultParseOptions tùy chọn khi request không gửi options
func DefaultParseOptions() ParseOptions {
	return ParseOptions{UseCache: true}
}

// BatchParseRequest request parse hàng loạt địa chỉ
type BatchParseRequest struct {
	Addresses []string     `json:"addresses" binding:"required,min=1,max=20000"` // Danh sách địa chỉ (tối đa 20k)
	Options   ParseOptions `json:"options,omitempty"`                            // Tùy chọn parse
}

// ImportGazetteerRequest request import dataset vào MongoDB
type ImportGazetteerRequest struct {
	Path   string `json:"path" binding:"required"` // Đường dẫn file JSON/YAML trên server
	Reload bool   `json:"reload,omitempty"`        // Load lại cây sau khi import
}

// ReviewApproveRequest request duyệt review và học alias
type ReviewApproveRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"` // ID người review
	AdminID    string `json:"admin_id" binding:"required"`    // Đơn vị hành chính đúng
	Alias      string `json:"alias" binding:"required"`       // Cách viết cần học
}

// ReviewRejectRequest request từ chối review
type ReviewRejectRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"` // ID người review
}
