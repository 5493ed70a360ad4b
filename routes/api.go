package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/address-resolver/app/controllers"
)

// Handlers các controller và thành phần dùng chung cho router
type Handlers struct {
	Address   *controllers.AddressController
	Gazetteer *controllers.GazetteerController
	Admin     *controllers.AdminController
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
	// RequestTimeout áp dụng cho parse đơn lẻ và tra cứu gazetteer, 0 = không giới hạn
	RequestTimeout time.Duration
}

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, h Handlers) {
	var timeout gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if h.RequestTimeout > 0 {
		timeout = requestTimeout(h.RequestTimeout)
	}

	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/parse", timeout, h.Address.ParseAddress)
			addresses.POST("/jobs", h.Address.BatchParse)
			addresses.GET("/jobs/:jobID/status", h.Address.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", h.Address.GetJobResults)
		}

		gazetteer := v1.Group("/gazetteer", timeout)
		{
			gazetteer.GET("/entities/:id", h.Gazetteer.GetEntity)
			gazetteer.GET("/entities/:id/children", h.Gazetteer.GetChildren)
			gazetteer.GET("/search", h.Gazetteer.Search)
			gazetteer.GET("/stats", h.Gazetteer.GetStats)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/cache/invalidate", h.Admin.InvalidateCache)
			admin.POST("/indexes/build", h.Admin.BuildIndexes)
			admin.POST("/gazetteer/reload", h.Admin.ReloadGazetteer)
			admin.POST("/gazetteer/import", h.Admin.ImportGazetteer)
			admin.GET("/stats", h.Admin.GetStats)
			admin.GET("/reviews", h.Admin.ListReviews)
			admin.POST("/reviews/:id/approve", h.Admin.ApproveReview)
			admin.POST("/reviews/:id/reject", h.Admin.RejectReview)
		}

		v1.GET("/health", h.Address.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Address.HealthCheck)
	router.GET("/ready", h.Address.Ready)
	router.GET("/live", h.Address.HealthCheck)
}

// SetupMetricsRoutes thiết lập metrics routes (cho Prometheus)
func SetupMetricsRoutes(router *gin.Engine, h Handlers) {
	gatherer := h.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// SetupAllRoutes thiết lập middleware và tất cả routes
func SetupAllRoutes(router *gin.Engine, h Handlers) {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	SetupWebRoutes(router)
	SetupHealthRoutes(router, h)
	SetupAPIRoutes(router, h)
	SetupMetricsRoutes(router, h)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}
