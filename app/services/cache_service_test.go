package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/models"
)

func cachedResult(version string) *models.AddressResult {
	return &models.AddressResult{
		Raw:              "Quận 1, Sài Gòn",
		GazetteerVersion: version,
		Status:           models.StatusPartial,
		AdminPath: []models.AdminRef{
			{ID: "760", Name: "Quận 1", Type: "Quận", Level: 2},
			{ID: "79", Name: "Thành phố Hồ Chí Minh", Type: "Thành phố Trung ương", Level: 1},
		},
	}
}

func TestCacheService_GetSet(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)

	_, found, err := cs.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "k1", cachedResult("v1")))

	got, found, err := cs.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "760", got.AdminPath[0].ID)

	// kết quả trả ra là bản sao
	got.AdminPath[0].ID = "changed"
	again, _, _ := cs.Get(ctx, "k1")
	assert.Equal(t, "760", again.AdminPath[0].ID)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(2), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestCacheService_TTLAndDelete(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)
	require.NoError(t, cs.Set(ctx, "k1", cachedResult("v1")))

	ttl, err := cs.GetTTL(ctx, "k1")
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	exists, err := cs.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cs.Delete(ctx, "k1"))
	exists, _ = cs.Exists(ctx, "k1")
	assert.False(t, exists)

	ttl, err = cs.GetTTL(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestCacheService_InvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)
	require.NoError(t, cs.Set(ctx, "old", cachedResult("v1")))
	require.NoError(t, cs.Set(ctx, "new", cachedResult("v2")))

	require.NoError(t, cs.InvalidateByGazetteerVersion(ctx, "v2"))
	exists, _ := cs.Exists(ctx, "old")
	assert.False(t, exists)
	exists, _ = cs.Exists(ctx, "new")
	assert.True(t, exists)

	require.NoError(t, cs.Clear(ctx))
	stats, _ := cs.GetStats(ctx)
	assert.Zero(t, stats.TotalItems)
	assert.Zero(t, stats.TotalHits)
}

func TestCacheService_Eviction(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(2, time.Hour)
	require.NoError(t, cs.Set(ctx, "a", cachedResult("v1")))
	require.NoError(t, cs.Set(ctx, "b", cachedResult("v1")))
	require.NoError(t, cs.Set(ctx, "c", cachedResult("v1")))

	exists, _ := cs.Exists(ctx, "a")
	assert.False(t, exists)
	stats, _ := cs.GetStats(ctx)
	assert.Equal(t, int64(2), stats.TotalItems)
}
