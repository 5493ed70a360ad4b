package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/requests"
	"github.com/address-resolver/helpers/utils"
	"github.com/address-resolver/internal/external"
	"github.com/address-resolver/internal/metrics"
	"github.com/address-resolver/internal/normalizer"
	"github.com/address-resolver/internal/parser"
)

var (
	ErrEmptyAddress       = errors.New("địa chỉ không được để trống")
	ErrAddressTooLong     = errors.New("địa chỉ quá dài")
	ErrTooManyAddresses   = errors.New("số lượng địa chỉ vượt quá giới hạn")
	ErrJobNotFound        = errors.New("job không tồn tại")
	ErrJobResultsNotFound = errors.New("kết quả job không tồn tại")
)

// Job status constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// thời gian parse ước tính cho một địa chỉ khi chưa có số liệu thực
const estimatedParseTime = 2 * time.Millisecond

// AddressServiceConfig cấu hình AddressService
type AddressServiceConfig struct {
	Parser    config.ParserCfg
	Batch     config.BatchCfg
	Libpostal config.LibpostalCfg
}

// AddressService service xử lý logic parse địa chỉ
type AddressService struct {
	gazetteer *GazetteerService
	cache     ICacheService
	reviews   ReviewQueue
	metrics   *metrics.Metrics
	cfg       AddressServiceConfig
	logger    *zap.Logger
	startTime time.Time
	now       func() time.Time

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]*models.AddressResult
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string    `json:"job_id"`
	Status             string    `json:"status"`
	Progress           float64   `json:"progress"`
	Processed          int       `json:"processed"`
	Failed             int       `json:"failed"`
	Total              int       `json:"total"`
	EstimatedRemaining int       `json:"estimated_remaining"`
	Message            string    `json:"message"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ServiceStats thống kê service
type ServiceStats struct {
	UptimeSeconds    int64       `json:"uptime_seconds"`
	StartTime        string      `json:"start_time"`
	GazetteerVersion string      `json:"gazetteer_version"`
	Jobs             int         `json:"jobs"`
	Cache            *CacheStats `json:"cache,omitempty"`
}

// NewAddressService tạo mới AddressService. cache và reviews có thể nil.
func NewAddressService(gazetteer *GazetteerService, cache ICacheService, reviews ReviewQueue, m *metrics.Metrics, cfg AddressServiceConfig, logger *zap.Logger) *AddressService {
	if cfg.Batch.Workers < 1 {
		cfg.Batch.Workers = 1
	}
	return &AddressService{
		gazetteer:  gazetteer,
		cache:      cache,
		reviews:    reviews,
		metrics:    m,
		cfg:        cfg,
		logger:     logger,
		startTime:  time.Now(),
		now:        time.Now,
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.AddressResult),
	}
}

// ParseAddress parse một địa chỉ. Trả về kết quả và cờ cache hit.
func (as *AddressService) ParseAddress(ctx context.Context, rawAddress string, options requests.ParseOptions) (*models.AddressResult, bool, error) {
	start := time.Now()

	raw := strings.TrimSpace(rawAddress)
	if raw == "" {
		return nil, false, ErrEmptyAddress
	}
	if limit := as.cfg.Parser.MaxAddressLength; limit > 0 && utf8.RuneCountInString(raw) > limit {
		return nil, false, fmt.Errorf("%w: tối đa %d ký tự", ErrAddressTooLong, limit)
	}

	p, err := as.gazetteer.Parser()
	if err != nil {
		return nil, false, err
	}
	version := p.Tree().Version()
	key := utils.Fingerprint(normalizer.NormalizeText(raw), version)

	useCache := options.UseCache && !options.Debug && as.cache != nil
	if useCache {
		if cached, ok := as.cacheGet(ctx, key); ok {
			cached.Raw = raw
			as.observe(cached, true, start)
			return limitLevels(cached, options.Levels), true, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	normalized := normalizer.CollapseSpaces(raw)
	var m *parser.Matches
	if options.Debug && as.cfg.Parser.Debug {
		m = p.ParseWithTracer(normalized, parser.NewZapTracer(as.logger))
	} else {
		m = p.ParseMatches(normalized)
	}

	result := as.buildResult(raw, normalized, key, version, m)
	if options.Debug && m != nil {
		result.Debug = debugInfo(m.Describe())
	}

	if useCache {
		if err := as.cache.Set(ctx, key, result.Clone()); err != nil {
			as.logger.Warn("Lỗi lưu cache", zap.String("backend", as.cache.Name()), zap.Error(err))
		}
	}
	if as.reviews != nil && result.Status != models.StatusMatched {
		if err := as.reviews.Enqueue(ctx, result); err != nil {
			as.logger.Warn("Lỗi thêm địa chỉ vào hàng đợi review", zap.Error(err))
		}
	}

	as.observe(result, false, start)
	return limitLevels(result, options.Levels), false, nil
}

func (as *AddressService) cacheGet(ctx context.Context, key string) (*models.AddressResult, bool) {
	backend := as.cache.Name()
	cached, found, err := as.cache.Get(ctx, key)
	switch {
	case err != nil:
		as.logger.Warn("Lỗi đọc cache", zap.String("backend", backend), zap.Error(err))
		as.cacheMetric(backend, "error")
		return nil, false
	case !found:
		as.cacheMetric(backend, "miss")
		return nil, false
	}
	as.cacheMetric(backend, "hit")
	return cached.Clone(), true
}

func (as *AddressService) cacheMetric(backend, result string) {
	if as.metrics != nil {
		as.metrics.CacheRequestsTotal.WithLabelValues(backend, result).Inc()
	}
}

func (as *AddressService) observe(result *models.AddressResult, cached bool, start time.Time) {
	if as.metrics == nil {
		return
	}
	label := "false"
	if cached {
		label = "true"
	}
	as.metrics.ParseTotal.WithLabelValues(result.Status).Inc()
	as.metrics.ParseDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if result.IsResolved() {
		as.metrics.ParseScore.Observe(result.Score)
	}
}

// buildResult dựng AddressResult từ giả thuyết tốt nhất (m có thể nil)
func (as *AddressService) buildResult(raw, normalized, key, version string, m *parser.Matches) *models.AddressResult {
	result := &models.AddressResult{
		Raw:              raw,
		Normalized:       normalized,
		RawFingerprint:   key,
		GazetteerVersion: version,
		Status:           models.StatusUnmatched,
		AdminPath:        []models.AdminRef{},
		Residual:         normalized,
	}
	if sig := as.extractSignals(raw); !sig.IsEmpty() {
		result.Signals = &sig
	}

	if m == nil || m.Entity() == nil {
		return result
	}

	leaf := m.Entity()
	names := make([]string, 0, leaf.Level())
	for _, e := range leaf.Path() {
		ref := models.AdminRef{ID: e.ID(), Name: e.Name(), Type: e.Type(), Level: e.Level()}
		result.AdminPath = append(result.AdminPath, ref)
		names = append(names, e.Name())

		r := ref
		switch e.Level() {
		case 1:
			result.Components.Province = &r
		case 2:
			result.Components.District = &r
		case 3:
			result.Components.Ward = &r
		}
	}

	result.Score = m.Score()
	result.CanonicalText = strings.Join(names, ", ")
	result.Residual = strings.Trim(m.Address(), " ,.-/")
	if leaf.HasChildren() {
		result.Status = models.StatusPartial
	} else {
		result.Status = models.StatusMatched
	}
	return result
}

// extractSignals lấy số nhà, đường... bằng libpostal nếu được bật, ngược lại bằng regex
func (as *AddressService) extractSignals(raw string) normalizer.Signals {
	if as.cfg.Libpostal.Enabled && external.Available() {
		c, err := external.Parse(raw)
		if err == nil {
			return normalizer.Signals{House: c.House, Road: c.Road, Unit: c.Unit, Level: c.Level}
		}
		as.logger.Warn("Lỗi libpostal, dùng regex", zap.Error(err))
	}
	return normalizer.ExtractSignals(raw)
}

func debugInfo(d parser.Description) *models.DebugInfo {
	info := &models.DebugInfo{
		Entity:    d.Entity,
		Scores:    d.Scores,
		Remaining: d.Remaining,
		Segments:  make([]models.SegmentInfo, 0, len(d.Segments)),
	}
	for _, s := range d.Segments {
		info.Segments = append(info.Segments, models.SegmentInfo{Matched: s.Matched, Canonical: s.Canonical})
	}
	return info
}

// limitLevels chỉ giữ levels cấp tính từ cấp 1
func limitLevels(result *models.AddressResult, levels int) *models.AddressResult {
	if levels <= 0 || len(result.AdminPath) <= levels {
		return result
	}
	result.AdminPath = result.AdminPath[len(result.AdminPath)-levels:]

	names := make([]string, 0, levels)
	for _, ref := range result.AdminPath {
		names = append(names, ref.Name)
	}
	result.CanonicalText = strings.Join(names, ", ")

	if levels < 3 {
		result.Components.Ward = nil
	}
	if levels < 2 {
		result.Components.District = nil
	}
	return result
}

// InvalidateCache xóa các kết quả cache không thuộc gazetteer hiện tại
func (as *AddressService) InvalidateCache(ctx context.Context) error {
	if as.cache == nil {
		return nil
	}
	return as.cache.InvalidateByGazetteerVersion(ctx, as.gazetteer.Version())
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây, tối thiểu 1)
func (as *AddressService) EstimateBatchProcessingTime(addressCount int) int {
	total := time.Duration(addressCount) * estimatedParseTime / time.Duration(as.cfg.Batch.Workers)
	seconds := int(total.Round(time.Second) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// CreateBatchJob tạo job ở trạng thái pending
func (as *AddressService) CreateBatchJob(addresses []string) (*JobStatus, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyAddress
	}
	if limit := as.cfg.Batch.MaxItems; limit > 0 && len(addresses) > limit {
		return nil, fmt.Errorf("%w: tối đa %d", ErrTooManyAddresses, limit)
	}

	now := as.now()
	job := &JobStatus{
		JobID:              utils.GenerateUUID(),
		Status:             JobStatusPending,
		Total:              len(addresses),
		EstimatedRemaining: as.EstimateBatchProcessingTime(len(addresses)),
		Message:            "Đang chờ xử lý",
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	as.mu.Lock()
	as.pruneJobsLocked(now)
	as.jobs[job.JobID] = job
	as.mu.Unlock()

	copied := *job
	return &copied, nil
}

// ProcessBatchJob xử lý job với số worker giới hạn, thường chạy trong goroutine riêng
func (as *AddressService) ProcessBatchJob(ctx context.Context, jobID string, addresses []string, options requests.ParseOptions) {
	started := time.Now()
	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = JobStatusRunning
		job.Message = "Đang xử lý..."
	})

	results, failed, err := as.parseAll(ctx, addresses, options, func(processed, failed int) {
		as.updateJob(jobID, func(job *JobStatus) {
			job.Processed = processed
			job.Failed = failed
			job.Progress = float64(processed) / float64(job.Total)
			if processed > 0 {
				perItem := time.Since(started) / time.Duration(processed)
				job.EstimatedRemaining = int((perItem * time.Duration(job.Total-processed)).Seconds())
			}
		})
	})

	status := JobStatusDone
	as.mu.Lock()
	if job, ok := as.jobs[jobID]; ok {
		job.Failed = failed
		job.UpdatedAt = as.now()
		job.EstimatedRemaining = 0
		if err != nil {
			status = JobStatusFailed
			job.Status = JobStatusFailed
			job.Message = err.Error()
		} else {
			job.Status = JobStatusDone
			job.Progress = 1
			job.Processed = job.Total
			job.Message = "Hoàn thành xử lý"
			as.jobResults[jobID] = results
		}
	}
	as.mu.Unlock()

	if as.metrics != nil {
		as.metrics.BatchJobsTotal.WithLabelValues(status).Inc()
		as.metrics.BatchItemsProcessed.Add(float64(len(addresses)))
	}

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.String("status", status),
		zap.Int("total_addresses", len(addresses)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(started)))
}

// parseAll parse song song, kết quả giữ đúng thứ tự đầu vào.
// Địa chỉ lỗi trở thành kết quả unmatched; chỉ hủy context mới làm cả batch lỗi.
func (as *AddressService) parseAll(ctx context.Context, addresses []string, options requests.ParseOptions, progress func(processed, failed int)) ([]*models.AddressResult, int, error) {
	results := make([]*models.AddressResult, len(addresses))
	version := as.gazetteer.Version()

	var (
		mu        sync.Mutex
		processed int
		failed    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(as.cfg.Batch.Workers)

	for i, address := range addresses {
		i, address := i, address
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, _, err := as.ParseAddress(gctx, address, options)
			ok := err == nil
			if !ok {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				result = &models.AddressResult{
					Raw:              address,
					GazetteerVersion: version,
					Status:           models.StatusUnmatched,
					AdminPath:        []models.AdminRef{},
				}
			}
			results[i] = result

			mu.Lock()
			processed++
			if !ok {
				failed++
			}
			p, f := processed, failed
			mu.Unlock()

			if progress != nil {
				progress(p, f)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, failed, err
	}
	return results, failed, nil
}

func (as *AddressService) updateJob(jobID string, fn func(job *JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if job, ok := as.jobs[jobID]; ok {
		fn(job)
		job.UpdatedAt = as.now()
	}
}

// pruneJobsLocked xóa job đã kết thúc quá batch.job_ttl cùng kết quả của nó.
// Job đang chạy không bao giờ bị xóa. Gọi khi đang giữ as.mu.
func (as *AddressService) pruneJobsLocked(now time.Time) {
	ttl := as.cfg.Batch.JobTTL
	if ttl <= 0 {
		return
	}
	for id, job := range as.jobs {
		if job.Status != JobStatusDone && job.Status != JobStatusFailed {
			continue
		}
		if now.Sub(job.UpdatedAt) > ttl {
			delete(as.jobs, id)
			delete(as.jobResults, id)
		}
	}
}

// GetJobStatus lấy bản sao trạng thái job
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

// GetJobResults lấy kết quả job đã hoàn thành
func (as *AddressService) GetJobResults(jobID string) ([]*models.AddressResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, exists := as.jobs[jobID]; !exists {
		return nil, ErrJobNotFound
	}
	results, exists := as.jobResults[jobID]
	if !exists {
		return nil, ErrJobResultsNotFound
	}
	return results, nil
}

// GetJobResultsStream lấy kết quả job dưới dạng channel để stream, dừng khi ctx bị hủy
func (as *AddressService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.AddressResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.AddressResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			select {
			case resultChannel <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return resultChannel, nil
}

// ProcessBatch parse danh sách địa chỉ và ghi NDJSON theo đúng thứ tự đầu vào
func (as *AddressService) ProcessBatch(ctx context.Context, inputs []string, w io.Writer, options requests.ParseOptions) error {
	as.logger.Info("Processing batch addresses", zap.Int("total", len(inputs)))

	results, failed, err := as.parseAll(ctx, inputs, options, nil)
	if err != nil {
		return fmt.Errorf("lỗi xử lý batch: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, result := range results {
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("lỗi ghi kết quả: %w", err)
		}
	}

	as.logger.Info("Completed batch processing",
		zap.Int("total", len(inputs)),
		zap.Int("failed", failed))
	return nil
}

// GetStartTime lấy thời gian khởi động service
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

// GetStats lấy thống kê service
func (as *AddressService) GetStats(ctx context.Context) *ServiceStats {
	as.mu.RLock()
	jobs := len(as.jobs)
	as.mu.RUnlock()

	stats := &ServiceStats{
		UptimeSeconds:    int64(time.Since(as.startTime).Seconds()),
		StartTime:        as.startTime.Format(time.RFC3339),
		GazetteerVersion: as.gazetteer.Version(),
		Jobs:             jobs,
	}
	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Lỗi lấy thống kê cache", zap.Error(err))
		} else {
			stats.Cache = cacheStats
		}
	}
	return stats
}
