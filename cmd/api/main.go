package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/controllers"
	"github.com/address-resolver/internal/logger"
	"github.com/address-resolver/routes"
)

// version được gán lúc build: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "config/app.yaml", "đường dẫn file cấu hình")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	// 2. Khởi tạo logger
	zapLogger, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting Address Resolver Service",
		zap.String("version", version),
		zap.String("env", cfg.App.Env))

	// 3. Kết nối backend, dựng service, load gazetteer
	app, err := bootstrap.New(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// 4. Khởi tạo controllers
	var reviews controllers.ReviewManager
	if app.Reviews != nil {
		reviews = app.Reviews
	}
	handlers := routes.Handlers{
		Address:        controllers.NewAddressController(app.Address, app.Gazetteer, version, zapLogger),
		Gazetteer:      controllers.NewGazetteerController(app.Gazetteer, zapLogger),
		Admin:          controllers.NewAdminController(app.Address, app.Gazetteer, reviews, zapLogger),
		Gatherer:       app.Registry,
		Logger:         zapLogger,
		RequestTimeout: config.RequestTimeout(),
	}

	// 5. Khởi tạo Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, handlers)

	// 6. Khởi động server
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}
	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := app.Close(ctx); err != nil {
		zapLogger.Error("Error closing backends", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}
