package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/requests"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
)

const (
	defaultReviewLimit = 50
	maxReviewLimit     = 500
)

// ReviewManager các thao tác trên hàng đợi review
type ReviewManager interface {
	List(ctx context.Context, status string, limit, offset int) ([]models.AddressReview, int64, error)
	Approve(ctx context.Context, id, reviewerID, adminID, alias string) (*models.AddressReview, error)
	Reject(ctx context.Context, id, reviewerID string) (*models.AddressReview, error)
}

// AdminController controller xử lý các request admin
type AdminController struct {
	addressService   *services.AddressService
	gazetteerService *services.GazetteerService
	reviews          ReviewManager
	logger           *zap.Logger
}

// NewAdminController tạo mới AdminController. reviews nil khi review bị tắt.
func NewAdminController(addressService *services.AddressService, gazetteerService *services.GazetteerService, reviews ReviewManager, logger *zap.Logger) *AdminController {
	return &AdminController{
		addressService:   addressService,
		gazetteerService: gazetteerService,
		reviews:          reviews,
		logger:           logger,
	}
}

// InvalidateCache xóa cache không thuộc gazetteer hiện tại
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	startTime := time.Now()

	if err := ac.addressService.InvalidateCache(c.Request.Context()); err != nil {
		ac.logger.Error("Lỗi invalidate cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("INVALIDATE_ERROR", "Lỗi invalidate cache: "+err.Error()))
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Invalidate cache thành công",
		zap.String("version", ac.gazetteerService.Version()),
		zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Invalidate cache thành công", map[string]interface{}{
		"gazetteer_version":  ac.gazetteerService.Version(),
		"processing_time_ms": processingTime.Milliseconds(),
	}))
}

// BuildIndexes build lại index Meilisearch từ cây hiện tại
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	startTime := time.Now()

	if err := ac.gazetteerService.Reindex(c.Request.Context()); err != nil {
		ac.logger.Error("Lỗi build indexes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("BUILD_ERROR", "Lỗi build indexes: "+err.Error()))
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Build indexes thành công", zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Build indexes thành công", map[string]interface{}{
		"processing_time_ms": processingTime.Milliseconds(),
	}))
}

// ReloadGazetteer load lại gazetteer từ nguồn cấu hình và bỏ cache cũ
func (ac *AdminController) ReloadGazetteer(c *gin.Context) {
	if err := ac.reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("RELOAD_ERROR", "Lỗi load gazetteer: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, responses.NewSuccessResponse("Load gazetteer thành công", map[string]interface{}{
		"gazetteer_version": ac.gazetteerService.Version(),
	}))
}

func (ac *AdminController) reload(ctx context.Context) error {
	previous := ac.gazetteerService.Version()
	if err := ac.gazetteerService.Load(ctx); err != nil {
		ac.logger.Error("Lỗi load gazetteer", zap.Error(err))
		return err
	}
	if err := ac.addressService.InvalidateCache(ctx); err != nil {
		ac.logger.Warn("Lỗi invalidate cache", zap.Error(err))
	}
	ac.logger.Info("Đã load lại gazetteer",
		zap.String("previous_version", previous),
		zap.String("version", ac.gazetteerService.Version()))
	return nil
}

// ImportGazetteer import dataset vào MongoDB, tùy chọn load lại cây
func (ac *AdminController) ImportGazetteer(c *gin.Context) {
	var req requests.ImportGazetteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REQUEST", "Request không hợp lệ: "+err.Error()))
		return
	}

	result, err := ac.gazetteerService.Import(c.Request.Context(), req.Path)
	if err != nil {
		ac.logger.Error("Lỗi import gazetteer", zap.String("path", req.Path), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrNoDatabase) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, responses.NewErrorResponse("IMPORT_ERROR", "Lỗi import gazetteer: "+err.Error()))
		return
	}

	if req.Reload {
		if err := ac.reload(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("RELOAD_ERROR", "Import thành công nhưng lỗi load gazetteer: "+err.Error()))
			return
		}
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Import gazetteer thành công", result))
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	data := map[string]interface{}{
		"service": ac.addressService.GetStats(c.Request.Context()),
	}
	if stats, err := ac.gazetteerService.Stats(); err == nil {
		data["gazetteer"] = stats
	}
	c.JSON(http.StatusOK, responses.NewSuccessResponse("Lấy thống kê thành công", data))
}

// ListReviews danh sách review: ?status=pending|approved|rejected|all&limit=50&offset=0
func (ac *AdminController) ListReviews(c *gin.Context) {
	if !ac.reviewEnabled(c) {
		return
	}

	status := c.DefaultQuery("status", models.ReviewStatusPending)
	if status == "all" {
		status = ""
	}
	limit := queryInt(c, "limit", defaultReviewLimit)
	if limit <= 0 || limit > maxReviewLimit {
		limit = defaultReviewLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	reviews, total, err := ac.reviews.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		ac.logger.Error("Lỗi lấy danh sách review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("REVIEW_ERROR", err.Error()))
		return
	}

	c.JSON(http.StatusOK, responses.ReviewListResponse{
		Reviews: reviews,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// ApproveReview duyệt review và học alias cho đơn vị được chọn
func (ac *AdminController) ApproveReview(c *gin.Context) {
	if !ac.reviewEnabled(c) {
		return
	}

	var req requests.ReviewApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REQUEST", "Request không hợp lệ: "+err.Error()))
		return
	}

	review, err := ac.reviews.Approve(c.Request.Context(), c.Param("id"), req.ReviewerID, req.AdminID, req.Alias)
	if err != nil {
		ac.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.NewSuccessResponse("Đã duyệt review", review))
}

// RejectReview từ chối review
func (ac *AdminController) RejectReview(c *gin.Context) {
	if !ac.reviewEnabled(c) {
		return
	}

	var req requests.ReviewRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REQUEST", "Request không hợp lệ: "+err.Error()))
		return
	}

	review, err := ac.reviews.Reject(c.Request.Context(), c.Param("id"), req.ReviewerID)
	if err != nil {
		ac.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.NewSuccessResponse("Đã từ chối review", review))
}

func (ac *AdminController) reviewEnabled(c *gin.Context) bool {
	if ac.reviews == nil {
		c.JSON(http.StatusServiceUnavailable, responses.NewErrorResponse("REVIEW_DISABLED", "Hàng đợi review chưa được bật"))
		return false
	}
	return true
}

func (ac *AdminController) reviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, responses.NewErrorResponse("REVIEW_NOT_FOUND", err.Error()))
	case errors.Is(err, services.ErrReviewClosed):
		c.JSON(http.StatusConflict, responses.NewErrorResponse("REVIEW_CLOSED", err.Error()))
	case errors.Is(err, services.ErrEntityNotFound), errors.Is(err, services.ErrEmptyAlias):
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REVIEW", err.Error()))
	default:
		ac.logger.Error("Lỗi xử lý review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("REVIEW_ERROR", err.Error()))
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}
