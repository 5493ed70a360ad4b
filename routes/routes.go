// Package routes khai báo toàn bộ HTTP routes của service
//
// Cấu trúc:
//   - api.go: API routes (/v1/*), health, metrics
//   - web.go: trang chủ và danh sách endpoint
//   - middleware.go: log request bằng zap, timeout request
//
// Sử dụng:
//
//	routes.SetupAllRoutes(router, handlers)
package routes
