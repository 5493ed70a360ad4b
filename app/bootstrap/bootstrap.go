// Package bootstrap kết nối các backend theo config và dựng service dùng chung cho cmd/api và cmd/worker
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/metrics"
	"github.com/address-resolver/internal/search"
)

// App các service đã được wiring
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Mongo     *mongo.Database
	Meili     *search.GazetteerSearcher
	Cache     services.ICacheService
	Gazetteer *services.GazetteerService
	Reviews   *services.ReviewService
	Address   *services.AddressService

	forceMongo bool
	closers    []func(context.Context) error
}

// Option tùy chọn khi dựng App
type Option func(*App)

// WithMongo luôn kết nối MongoDB, kể cả khi config không cần (import dataset)
func WithMongo() Option {
	return func(app *App) { app.forceMongo = true }
}

// New kết nối MongoDB, Redis, Meilisearch khi config cần tới, dựng service và load gazetteer
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	app.Metrics = metrics.New(app.Registry)
	for _, opt := range opts {
		opt(app)
	}

	if err := app.init(ctx); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	cfg := app.Config

	// 1. MongoDB
	if app.forceMongo || needsMongo(cfg) {
		db, err := app.connectMongo(ctx)
		if err != nil {
			return err
		}
		app.Mongo = db
	}

	// 2. Meilisearch (không bắt buộc, lỗi thì dùng tìm kiếm cục bộ)
	if cfg.Meilisearch.Enabled {
		meili, err := search.NewGazetteerSearcher(search.SearchConfig{
			Host:      cfg.Meilisearch.URL,
			APIKey:    cfg.Meilisearch.MasterKey,
			IndexName: cfg.Meilisearch.Index,
			Timeout:   cfg.Meilisearch.Timeout,
		}, app.Logger)
		if err != nil {
			app.Logger.Warn("Không kết nối được Meilisearch, dùng tìm kiếm cục bộ", zap.Error(err))
		} else {
			app.Meili = meili
		}
	}

	// 3. Cache
	cache, err := app.buildCache()
	if err != nil {
		return err
	}
	app.Cache = cache

	// 4. Gazetteer + learned aliases
	opts := []services.GazetteerOption{}
	var aliases services.AliasStore
	if app.Mongo != nil {
		opts = append(opts, services.WithDatabase(app.Mongo))
		if cfg.Gazetteer.LearnedAliases || cfg.Review.Enabled {
			store, err := services.NewMongoAliasStore(app.Mongo, app.Logger)
			if err != nil {
				return err
			}
			aliases = store
			opts = append(opts, services.WithAliasStore(store))
		}
	}
	if app.Meili != nil {
		opts = append(opts, services.WithMeilisearch(app.Meili))
	}
	app.Gazetteer = services.NewGazetteerService(cfg.Gazetteer, app.Metrics, app.Logger, opts...)
	if err := app.Gazetteer.Load(ctx); err != nil {
		return fmt.Errorf("lỗi load gazetteer: %w", err)
	}

	// 5. Review queue
	var queue services.ReviewQueue
	if cfg.Review.Enabled {
		reviews, err := services.NewReviewService(app.Mongo, aliases, app.Gazetteer, app.Logger)
		if err != nil {
			return err
		}
		app.Reviews = reviews
		queue = reviews
	}

	// 6. Address service
	app.Address = services.NewAddressService(app.Gazetteer, app.Cache, queue, app.Metrics, services.AddressServiceConfig{
		Parser:    cfg.Parser,
		Batch:     cfg.Batch,
		Libpostal: cfg.Libpostal,
	}, app.Logger)
	return nil
}

func needsMongo(cfg *config.Config) bool {
	switch {
	case cfg.Gazetteer.Source == "mongo",
		cfg.Cache.Backend == "mongo",
		cfg.Cache.Backend == "tiered",
		cfg.Gazetteer.LearnedAliases,
		cfg.Review.Enabled:
		return true
	}
	return false
}

func (app *App) connectMongo(ctx context.Context) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(app.Config.Mongo.URL))
	if err != nil {
		return nil, fmt.Errorf("không thể kết nối MongoDB: %w", err)
	}
	app.closers = append(app.closers, client.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("không thể ping MongoDB: %w", err)
	}

	app.Logger.Info("Connected to MongoDB", zap.String("database", app.Config.Mongo.Database))
	return client.Database(app.Config.Mongo.Database), nil
}

// buildCache memory: LRU trong process; redis, mongo: một tầng; tiered: memory → redis → mongo
func (app *App) buildCache() (services.ICacheService, error) {
	cfg := app.Config.Cache

	switch cfg.Backend {
	case "none":
		return nil, nil
	case "memory":
		return services.NewCacheService(cfg.L1Size, cfg.TTL), nil
	case "redis":
		return services.NewRedisCacheService(app.Config.Redis.URL, cfg.TTL, app.Logger)
	case "mongo":
		return services.NewMongoCacheService(app.Mongo, cfg.TTL, app.Logger)
	case "tiered":
		redisCache, err := services.NewRedisCacheService(app.Config.Redis.URL, cfg.TTL, app.Logger)
		if err != nil {
			return nil, err
		}
		mongoCache, err := services.NewMongoCacheService(app.Mongo, cfg.TTL, app.Logger)
		if err != nil {
			_ = redisCache.Close()
			return nil, err
		}
		return services.NewTieredCacheService(app.Logger,
			services.NewCacheService(cfg.L1Size, cfg.TTL), redisCache, mongoCache), nil
	}
	return nil, fmt.Errorf("cache.backend không hợp lệ: %q", cfg.Backend)
}

// Close đóng cache và các kết nối theo thứ tự ngược lại lúc mở
func (app *App) Close(ctx context.Context) error {
	var errs []error
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
		app.Cache = nil
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
