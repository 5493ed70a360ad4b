package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/requests"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
)

// AddressController controller xử lý các request liên quan đến địa chỉ
type AddressController struct {
	addressService   *services.AddressService
	gazetteerService *services.GazetteerService
	version          string
	logger           *zap.Logger
}

// NewAddressController tạo mới AddressController
func NewAddressController(addressService *services.AddressService, gazetteerService *services.GazetteerService, version string, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService:   addressService,
		gazetteerService: gazetteerService,
		version:          version,
		logger:           logger,
	}
}

// ParseAddress parse địa chỉ đơn lẻ
func (ac *AddressController) ParseAddress(c *gin.Context) {
	req := requests.ParseAddressRequest{Options: requests.DefaultParseOptions()}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REQUEST", "Request không hợp lệ: "+err.Error()))
		return
	}

	startTime := time.Now()
	result, cacheHit, err := ac.addressService.ParseAddress(c.Request.Context(), req.Address, req.Options)
	if err != nil {
		ac.parseError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.ParseAddressResponse{
		GazetteerVersion: result.GazetteerVersion,
		Result:           *result,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

func (ac *AddressController) parseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyAddress), errors.Is(err, services.ErrAddressTooLong):
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_ADDRESS", err.Error()))
	case errors.Is(err, services.ErrGazetteerMissing):
		c.JSON(http.StatusServiceUnavailable, responses.NewErrorResponse("GAZETTEER_NOT_LOADED", err.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, responses.NewErrorResponse("REQUEST_CANCELED", err.Error()))
	default:
		ac.logger.Error("Lỗi parse địa chỉ", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("PARSE_ERROR", "Lỗi parse địa chỉ: "+err.Error()))
	}
}

// BatchParse tạo job parse hàng loạt địa chỉ
func (ac *AddressController) BatchParse(c *gin.Context) {
	req := requests.BatchParseRequest{Options: requests.DefaultParseOptions()}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("INVALID_REQUEST", "Request không hợp lệ: "+err.Error()))
		return
	}

	job, err := ac.addressService.CreateBatchJob(req.Addresses)
	if err != nil {
		code := "INVALID_BATCH"
		if errors.Is(err, services.ErrTooManyAddresses) {
			code = "TOO_MANY_ADDRESSES"
		}
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse(code, err.Error()))
		return
	}

	// job sống lâu hơn request
	go ac.addressService.ProcessBatchJob(context.Background(), job.JobID, req.Addresses, req.Options)

	c.JSON(http.StatusAccepted, responses.BatchParseResponse{
		JobID:            job.JobID,
		EstimatedSeconds: job.EstimatedRemaining,
		TotalAddresses:   job.Total,
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.NewErrorResponse("JOB_NOT_FOUND", "Không tìm thấy job: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              status.JobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Failed:             status.Failed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job, hỗ trợ NDJSON + gzip streaming
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		ac.jobResultsError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Lấy kết quả thành công", results))
}

func (ac *AddressController) jobResultsError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrJobResultsNotFound) {
		c.JSON(http.StatusConflict, responses.NewErrorResponse("JOB_NOT_DONE", "Job chưa hoàn thành"))
		return
	}
	c.JSON(http.StatusNotFound, responses.NewErrorResponse("JOB_NOT_FOUND", "Không tìm thấy job: "+err.Error()))
}

// streamNDJSONResults stream kết quả theo format NDJSON với hỗ trợ gzip
func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		ac.jobResultsError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Error("Lỗi encode NDJSON", zap.Error(err))
			return
		}
		writer.Flush()
	}
}

// HealthCheck kiểm tra sức khỏe service, luôn 200 khi process còn sống
func (ac *AddressController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, ac.health())
}

// Ready chỉ sẵn sàng nhận request khi gazetteer đã load
func (ac *AddressController) Ready(c *gin.Context) {
	health := ac.health()
	if health.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}

func (ac *AddressController) health() responses.HealthCheckResponse {
	gazetteerStatus := "healthy"
	if ac.gazetteerService.Tree() == nil {
		gazetteerStatus = "not_loaded"
	}

	status := "healthy"
	if gazetteerStatus != "healthy" {
		status = "degraded"
	}

	return responses.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
		Version:   ac.version,
		Services: map[string]string{
			"gazetteer":         gazetteerStatus,
			"gazetteer_version": ac.gazetteerService.Version(),
		},
	}
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
