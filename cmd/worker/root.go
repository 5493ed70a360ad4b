package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/config"
	"github.com/address-resolver/internal/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "Resolve địa chỉ hành chính Việt Nam từ dòng lệnh",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/app.yaml", "đường dẫn file cấu hình")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error), mặc định theo config hoặc warn")

	cmd.AddCommand(
		newParseCmd(opts),
		newBatchCmd(opts),
		newImportCmd(opts),
		newSeedMeiliCmd(opts),
		newConvertCmd(),
	)
	return cmd
}

// loadConfig đọc config và áp dụng override của command
func (o *rootOptions) loadConfig(override func(*config.Config)) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(cfg)
	}

	level := o.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	if level == "" {
		level = "warn"
	}
	zapLogger, err := logger.New(cfg.App.Env, level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, zapLogger, nil
}

// withApp dựng App, chạy fn rồi đóng kết nối
func (o *rootOptions) withApp(ctx context.Context, override func(*config.Config), fn func(*bootstrap.App) error, opts ...bootstrap.Option) error {
	cfg, zapLogger, err := o.loadConfig(override)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	app, err := bootstrap.New(ctx, cfg, zapLogger, opts...)
	if err != nil {
		return fmt.Errorf("lỗi khởi tạo service: %w", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			zapLogger.Warn("Lỗi đóng kết nối", zap.Error(err))
		}
	}()

	return fn(app)
}
