package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupWebRoutes trang chủ và danh sách endpoint
func SetupWebRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Address Resolver Service",
			"docs":    "/docs",
		})
	})

	router.GET("/docs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api": "Address Resolver API v1",
			"endpoints": map[string]string{
				"parse":            "POST /v1/addresses/parse",
				"batch":            "POST /v1/addresses/jobs",
				"job_status":       "GET /v1/addresses/jobs/:jobID/status",
				"job_results":      "GET /v1/addresses/jobs/:jobID/results?format=ndjson&gzip=1",
				"entity":           "GET /v1/gazetteer/entities/:id",
				"children":         "GET /v1/gazetteer/entities/:id/children",
				"search":           "GET /v1/gazetteer/search?q=&level=&parent_id=&limit=",
				"gazetteer_stats":  "GET /v1/gazetteer/stats",
				"cache_invalidate": "POST /v1/admin/cache/invalidate",
				"indexes_build":    "POST /v1/admin/indexes/build",
				"reload":           "POST /v1/admin/gazetteer/reload",
				"import":           "POST /v1/admin/gazetteer/import",
				"reviews":          "GET /v1/admin/reviews",
				"health":           "GET /health",
				"metrics":          "GET /metrics",
			},
		})
	})
}
