package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/requests"
	"github.com/address-resolver/internal/metrics"
)

const fullAddress = "12 Nguyễn Huệ, Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh"

// recordingQueue ReviewQueue ghi lại các địa chỉ được đưa vào review
type recordingQueue struct {
	mu    sync.Mutex
	items []*models.AddressResult
}

func (q *recordingQueue) Enqueue(_ context.Context, result *models.AddressResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, result)
	return nil
}

func testServiceConfig() AddressServiceConfig {
	return AddressServiceConfig{
		Parser: config.ParserCfg{Debug: true, MaxAddressLength: 200},
		Batch:  config.BatchCfg{Workers: 4, MaxItems: 5},
	}
}

func newTestAddressService(t *testing.T, cache ICacheService, reviews ReviewQueue) (*AddressService, *metrics.Metrics) {
	t.Helper()
	gs, m := newTestGazetteer(t)
	return NewAddressService(gs, cache, reviews, m, testServiceConfig(), zap.NewNop()), m
}

func cacheItems(t *testing.T, cache ICacheService) int64 {
	t.Helper()
	stats, err := cache.GetStats(context.Background())
	require.NoError(t, err)
	return stats.TotalItems
}

func pathIDs(result *models.AddressResult) []string {
	out := make([]string, 0, len(result.AdminPath))
	for _, ref := range result.AdminPath {
		out = append(out, ref.ID)
	}
	return out
}

func TestAddressService_ParseMatched(t *testing.T) {
	as, _ := newTestAddressService(t, nil, nil)

	result, cacheHit, err := as.ParseAddress(context.Background(), "  "+fullAddress+"  ", requests.DefaultParseOptions())
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, fullAddress, result.Raw)
	assert.Equal(t, models.StatusMatched, result.Status)
	assert.Equal(t, "sample-2024.1", result.GazetteerVersion)
	assert.Equal(t, []string{"26734", "760", "79"}, pathIDs(result))
	assert.Equal(t, "Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh", result.CanonicalText)
	assert.Equal(t, "12 Nguyễn Huệ", result.Residual)
	assert.Positive(t, result.Score)
	assert.NotEmpty(t, result.RawFingerprint)
	assert.Nil(t, result.Debug)

	require.NotNil(t, result.Components.Ward)
	require.NotNil(t, result.Components.District)
	require.NotNil(t, result.Components.Province)
	assert.Equal(t, "26734", result.Components.Ward.ID)
	assert.Equal(t, "760", result.Components.District.ID)
	assert.Equal(t, "79", result.Components.Province.ID)

	require.NotNil(t, result.Signals)
	assert.Equal(t, "12", result.Signals.House)
	assert.Equal(t, "nguyen hue", result.Signals.Road)
}

func TestAddressService_ParsePartialAndUnmatched(t *testing.T) {
	queue := &recordingQueue{}
	as, m := newTestAddressService(t, nil, queue)
	ctx := context.Background()

	partial, _, err := as.ParseAddress(ctx, "Quận 1, Sài Gòn", requests.DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartial, partial.Status)
	assert.Equal(t, []string{"760", "79"}, pathIDs(partial))
	assert.Nil(t, partial.Components.Ward)
	assert.Empty(t, partial.Residual)

	unmatched, _, err := as.ParseAddress(ctx, "Phường Bến Nghé", requests.DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnmatched, unmatched.Status)
	assert.Empty(t, unmatched.AdminPath)
	assert.NotNil(t, unmatched.AdminPath)
	assert.Equal(t, "Phường Bến Nghé", unmatched.Residual)
	assert.Zero(t, unmatched.Score)

	matched, _, err := as.ParseAddress(ctx, fullAddress, requests.DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, models.StatusMatched, matched.Status)

	// chỉ partial/unmatched được đưa vào review
	require.Len(t, queue.items, 2)
	assert.Equal(t, "Quận 1, Sài Gòn", queue.items[0].Raw)
	assert.Equal(t, "Phường Bến Nghé", queue.items[1].Raw)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseTotal.WithLabelValues(models.StatusPartial)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseTotal.WithLabelValues(models.StatusUnmatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseTotal.WithLabelValues(models.StatusMatched)))
}

func TestAddressService_ParseErrors(t *testing.T) {
	as, _ := newTestAddressService(t, nil, nil)
	opts := requests.DefaultParseOptions()

	_, _, err := as.ParseAddress(context.Background(), "   ", opts)
	assert.ErrorIs(t, err, ErrEmptyAddress)

	_, _, err = as.ParseAddress(context.Background(), strings.Repeat("a", 201), opts)
	assert.ErrorIs(t, err, ErrAddressTooLong)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = as.ParseAddress(ctx, fullAddress, opts)
	assert.ErrorIs(t, err, context.Canceled)

	notLoaded := NewAddressService(NewGazetteerService(config.GazetteerCfg{}, nil, zap.NewNop()),
		nil, nil, nil, testServiceConfig(), zap.NewNop())
	_, _, err = notLoaded.ParseAddress(context.Background(), fullAddress, opts)
	assert.ErrorIs(t, err, ErrGazetteerMissing)
}

func TestAddressService_Cache(t *testing.T) {
	cache := NewCacheService(100, time.Hour)
	as, m := newTestAddressService(t, cache, nil)
	ctx := context.Background()
	opts := requests.DefaultParseOptions()

	first, cacheHit, err := as.ParseAddress(ctx, "Quận 1, Sài Gòn", opts)
	require.NoError(t, err)
	assert.False(t, cacheHit)

	// khóa cache không phân biệt hoa thường, Raw luôn là input của request
	second, cacheHit, err := as.ParseAddress(ctx, "QUẬN 1,  SÀI GÒN", opts)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, "QUẬN 1,  SÀI GÒN", second.Raw)
	assert.Equal(t, pathIDs(first), pathIDs(second))
	assert.Equal(t, first.RawFingerprint, second.RawFingerprint)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("memory", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("memory", "hit")))

	// tắt cache thì không đọc cache
	opts.UseCache = false
	_, cacheHit, err = as.ParseAddress(ctx, "Quận 1, Sài Gòn", opts)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("memory", "hit")))
}

func TestAddressService_CacheErrorFallsBackToParse(t *testing.T) {
	as, m := newTestAddressService(t, failingCache{}, nil)

	result, cacheHit, err := as.ParseAddress(context.Background(), "Quận 1, Sài Gòn", requests.DefaultParseOptions())
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, []string{"760", "79"}, pathIDs(result))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("failing", "error")))
}

func TestAddressService_Debug(t *testing.T) {
	cache := NewCacheService(100, time.Hour)
	as, _ := newTestAddressService(t, cache, nil)

	opts := requests.DefaultParseOptions()
	opts.Debug = true
	result, cacheHit, err := as.ParseAddress(context.Background(), "Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh", opts)
	require.NoError(t, err)
	assert.False(t, cacheHit)

	require.NotNil(t, result.Debug)
	assert.Len(t, result.Debug.Scores, 15)
	require.Len(t, result.Debug.Segments, 3)
	assert.Equal(t, "Thành phố Hồ Chí Minh", result.Debug.Segments[0].Matched)
	assert.Empty(t, result.Debug.Remaining)

	// debug không ghi cache
	assert.Zero(t, cacheItems(t, cache))
}

func TestAddressService_Levels(t *testing.T) {
	as, _ := newTestAddressService(t, NewCacheService(100, time.Hour), nil)
	ctx := context.Background()

	opts := requests.DefaultParseOptions()
	opts.Levels = 1
	result, _, err := as.ParseAddress(ctx, fullAddress, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"79"}, pathIDs(result))
	assert.Equal(t, "Thành phố Hồ Chí Minh", result.CanonicalText)
	assert.Nil(t, result.Components.Ward)
	assert.Nil(t, result.Components.District)
	require.NotNil(t, result.Components.Province)

	// cache giữ kết quả đầy đủ
	full, cacheHit, err := as.ParseAddress(ctx, fullAddress, requests.DefaultParseOptions())
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, []string{"26734", "760", "79"}, pathIDs(full))
}

func TestAddressService_BatchJob(t *testing.T) {
	as, m := newTestAddressService(t, nil, nil)
	addresses := []string{fullAddress, "", "Quận 1, Sài Gòn", "HCM"}

	job, err := as.CreateBatchJob(addresses)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 4, job.Total)
	assert.Equal(t, 1, job.EstimatedRemaining)

	_, err = as.GetJobResults(job.JobID)
	assert.ErrorIs(t, err, ErrJobResultsNotFound)

	as.ProcessBatchJob(context.Background(), job.JobID, addresses, requests.DefaultParseOptions())

	status, err := as.GetJobStatus(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusDone, status.Status)
	assert.Equal(t, 4, status.Processed)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1.0, status.Progress)

	results, err := as.GetJobResults(job.JobID)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"26734", "760", "79"}, pathIDs(results[0]))
	assert.Equal(t, models.StatusUnmatched, results[1].Status)
	assert.Equal(t, []string{"760", "79"}, pathIDs(results[2]))
	assert.Equal(t, []string{"79"}, pathIDs(results[3]))

	stream, err := as.GetJobResultsStream(context.Background(), job.JobID)
	require.NoError(t, err)
	var streamed []*models.AddressResult
	for r := range stream {
		streamed = append(streamed, r)
	}
	assert.Equal(t, results, streamed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchJobsTotal.WithLabelValues(JobStatusDone)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.BatchItemsProcessed))
}

func TestAddressService_FinishedJobsExpire(t *testing.T) {
	cfg := testServiceConfig()
	cfg.Batch.JobTTL = time.Hour
	gs, m := newTestGazetteer(t)
	as := NewAddressService(gs, nil, nil, m, cfg, zap.NewNop())

	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	as.now = func() time.Time { return clock }

	done, err := as.CreateBatchJob([]string{"HCM"})
	require.NoError(t, err)
	as.ProcessBatchJob(context.Background(), done.JobID, []string{"HCM"}, requests.DefaultParseOptions())

	pending, err := as.CreateBatchJob([]string{"HCM"})
	require.NoError(t, err)

	// chưa quá ttl: job đã xong vẫn còn
	clock = clock.Add(30 * time.Minute)
	_, err = as.CreateBatchJob([]string{"HCM"})
	require.NoError(t, err)
	_, err = as.GetJobResults(done.JobID)
	require.NoError(t, err)

	// quá ttl: job đã xong bị xóa cùng kết quả, job chưa chạy được giữ lại
	clock = clock.Add(2 * time.Hour)
	_, err = as.CreateBatchJob([]string{"HCM"})
	require.NoError(t, err)

	_, err = as.GetJobStatus(done.JobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = as.GetJobResults(done.JobID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	status, err := as.GetJobStatus(pending.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, status.Status)
}

func TestAddressService_JobsKeptWithoutTTL(t *testing.T) {
	as, _ := newTestAddressService(t, nil, nil)
	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	as.now = func() time.Time { return clock }

	job, err := as.CreateBatchJob([]string{"HCM"})
	require.NoError(t, err)
	as.ProcessBatchJob(context.Background(), job.JobID, []string{"HCM"}, requests.DefaultParseOptions())

	clock = clock.Add(1000 * time.Hour)
	_, err = as.CreateBatchJob([]string{"HCM"})
	require.NoError(t, err)

	_, err = as.GetJobResults(job.JobID)
	assert.NoError(t, err)
}

func TestAddressService_BatchJobCanceled(t *testing.T) {
	as, m := newTestAddressService(t, nil, nil)
	addresses := []string{fullAddress, "HCM"}

	job, err := as.CreateBatchJob(addresses)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	as.ProcessBatchJob(ctx, job.JobID, addresses, requests.DefaultParseOptions())

	status, err := as.GetJobStatus(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, status.Status)
	assert.NotEmpty(t, status.Message)

	_, err = as.GetJobResults(job.JobID)
	assert.ErrorIs(t, err, ErrJobResultsNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchJobsTotal.WithLabelValues(JobStatusFailed)))
}

func TestAddressService_BatchJobErrors(t *testing.T) {
	as, _ := newTestAddressService(t, nil, nil)

	_, err := as.CreateBatchJob(nil)
	assert.ErrorIs(t, err, ErrEmptyAddress)

	_, err = as.CreateBatchJob(make([]string, 6))
	assert.ErrorIs(t, err, ErrTooManyAddresses)

	_, err = as.GetJobStatus("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = as.GetJobResults("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = as.GetJobResultsStream(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAddressService_ProcessBatch(t *testing.T) {
	as, _ := newTestAddressService(t, nil, nil)
	inputs := []string{"HCM", "Huyện Châu Thành, Tỉnh Tiền Giang", "Huyện Châu Thành"}

	var buf bytes.Buffer
	require.NoError(t, as.ProcessBatch(context.Background(), inputs, &buf, requests.DefaultParseOptions()))

	var lines []models.AddressResult
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var r models.AddressResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		lines = append(lines, r)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"79"}, pathIDs(&lines[0]))
	assert.Equal(t, []string{"820", "82"}, pathIDs(&lines[1]))
	// tên trùng ở hai tỉnh, không đủ ngữ cảnh
	assert.Equal(t, models.StatusUnmatched, lines[2].Status)

	assert.Contains(t, buf.String(), "Châu Thành", "không escape unicode")
}

func TestAddressService_EstimateBatchProcessingTime(t *testing.T) {
	as, _ := newTestAddressService(t, nil, nil)
	assert.Equal(t, 1, as.EstimateBatchProcessingTime(10))

	gs, _ := newTestGazetteer(t)
	cfg := testServiceConfig()
	cfg.Batch.Workers = 8
	wide := NewAddressService(gs, nil, nil, nil, cfg, zap.NewNop())
	assert.Equal(t, 250, wide.EstimateBatchProcessingTime(1_000_000))

	cfg.Batch.Workers = 0
	single := NewAddressService(gs, nil, nil, nil, cfg, zap.NewNop())
	assert.Equal(t, 2000, single.EstimateBatchProcessingTime(1_000_000))
}

func TestAddressService_InvalidateCacheAndStats(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(100, time.Hour)
	as, _ := newTestAddressService(t, cache, nil)

	require.NoError(t, cache.Set(ctx, "stale", cachedResult("old-version")))
	_, _, err := as.ParseAddress(ctx, "HCM", requests.DefaultParseOptions())
	require.NoError(t, err)
	require.Equal(t, int64(2), cacheItems(t, cache))

	require.NoError(t, as.InvalidateCache(ctx))
	assert.Equal(t, int64(1), cacheItems(t, cache))

	stats := as.GetStats(ctx)
	assert.Equal(t, "sample-2024.1", stats.GazetteerVersion)
	assert.Equal(t, 0, stats.Jobs)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)
	assert.False(t, as.GetStartTime().IsZero())

	noCache, _ := newTestAddressService(t, nil, nil)
	assert.NoError(t, noCache.InvalidateCache(ctx))
	assert.Nil(t, noCache.GetStats(ctx).Cache)
}
