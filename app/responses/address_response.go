package responses

import (
	"time"

	"github.com/address-resolver/app/models"
)

// ParseAddressResponse response parse địa chỉ đơn lẻ
type ParseAddressResponse struct {
	GazetteerVersion string               `json:"gazetteer_version"`  // Phiên bản gazetteer
	Result           models.AddressResult `json:"result"`             // Kết quả parse
	ProcessingTimeMs int64                `json:"processing_time_ms"` // Thời gian xử lý (ms)
	CacheHit         bool                 `json:"cache_hit"`          // Có hit cache không
}

// BatchParseResponse response parse hàng loạt địa chỉ
type BatchParseResponse struct {
	JobID            string `json:"job_id"`            // ID của job
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	TotalAddresses   int    `json:"total_addresses"`   // Tổng số địa chỉ
	Message          string `json:"message"`           // Thông báo
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`              // ID của job
	Status             string  `json:"status"`              // Trạng thái job
	Progress           float64 `json:"progress"`            // Tiến độ (0.0 - 1.0)
	Processed          int     `json:"processed"`           // Số địa chỉ đã xử lý
	Failed             int     `json:"failed"`              // Số địa chỉ lỗi
	Total              int     `json:"total"`               // Tổng số địa chỉ
	EstimatedRemaining int     `json:"estimated_remaining"` // Thời gian còn lại ước tính (giây)
	Message            string  `json:"message"`             // Thông báo
}

// EntityResponse một đơn vị hành chính
type EntityResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Level       int               `json:"level"`
	Status      string            `json:"status"`
	RedirectID  string            `json:"redirect_id,omitempty"`
	Aliases     []string          `json:"aliases,omitempty"`
	HasChildren bool              `json:"has_children"`
	Path        []models.AdminRef `json:"path"` // Từ đơn vị này lên cấp 1
}

// EntityListResponse danh sách đơn vị hành chính
type EntityListResponse struct {
	ParentID string           `json:"parent_id"`
	Entities []EntityResponse `json:"entities"`
	Total    int              `json:"total"`
}

// ReviewListResponse response danh sách review
type ReviewListResponse struct {
	Reviews []models.AddressReview `json:"reviews"` // Danh sách review
	Total   int64                  `json:"total"`   // Tổng số review theo filter
	Limit   int                    `json:"limit"`   // Giới hạn số lượng
	Offset  int                    `json:"offset"`  // Offset
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`                // Mã lỗi
	Message   string      `json:"message"`              // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"`    // Chi tiết lỗi
	Timestamp string      `json:"timestamp"`            // Thời gian xảy ra lỗi
	RequestID string      `json:"request_id,omitempty"` // ID của request
}

// NewErrorResponse tạo ErrorResponse với timestamp hiện tại
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`        // Có thành công không
	Message   string      `json:"message"`        // Thông báo
	Data      interface{} `json:"data,omitempty"` // Dữ liệu
	Timestamp string      `json:"timestamp"`      // Thời gian
}

// NewSuccessResponse tạo SuccessResponse với timestamp hiện tại
func NewSuccessResponse(message string, data interface{}) SuccessResponse {
	return SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status    string            `json:"status"`    // Trạng thái sức khỏe
	Timestamp string            `json:"timestamp"` // Thời gian kiểm tra
	Uptime    string            `json:"uptime"`    // Thời gian hoạt động
	Version   string            `json:"version"`   // Phiên bản
	Services  map[string]string `json:"services"`  // Trạng thái các service
}
