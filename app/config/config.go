package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogCfg struct {
	// Level "debug", "info", "warn", "error"; rỗng thì theo app.env
	Level string `mapstructure:"level"`
}

type GazetteerCfg struct {
	// Source "file" hoặc "mongo"
	Source     string `mapstructure:"source"`
	Path       string `mapstructure:"path"`
	Collection string `mapstructure:"collection"`
	// LearnedAliases gộp alias từ collection learned_aliases khi load (cần MongoDB)
	LearnedAliases bool `mapstructure:"learned_aliases"`
}

type MongoCfg struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	URL string `mapstructure:"url"`
}

type MeiliCfg struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	MasterKey string        `mapstructure:"master_key"`
	Index     string        `mapstructure:"index"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CacheCfg struct {
	// Backend "none", "memory", "redis", "mongo" hoặc "tiered"
	Backend string        `mapstructure:"backend"`
	L1Size  int           `mapstructure:"l1_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ParserCfg struct {
	Debug            bool `mapstructure:"debug"`
	MaxAddressLength int  `mapstructure:"max_address_length"`
}

type LibpostalCfg struct {
	Enabled bool `mapstructure:"enabled"`
}

type ReviewCfg struct {
	// Enabled ghi địa chỉ partial/unmatched vào address_review (cần MongoDB)
	Enabled bool `mapstructure:"enabled"`
}

type BatchCfg struct {
	Workers  int           `mapstructure:"workers"`
	MaxItems int           `mapstructure:"max_items"`
	JobTTL   time.Duration `mapstructure:"job_ttl"` // job đã xong giữ lại bao lâu, 0 = không xóa
}

// Config cấu hình toàn bộ service
type Config struct {
	App         AppCfg       `mapstructure:"app"`
	Log         LogCfg       `mapstructure:"log"`
	Gazetteer   GazetteerCfg `mapstructure:"gazetteer"`
	Mongo       MongoCfg     `mapstructure:"mongo"`
	Redis       RedisCfg     `mapstructure:"redis"`
	Meilisearch MeiliCfg     `mapstructure:"meilisearch"`
	Cache       CacheCfg     `mapstructure:"cache"`
	Parser      ParserCfg    `mapstructure:"parser"`
	Libpostal   LibpostalCfg `mapstructure:"libpostal"`
	Review      ReviewCfg    `mapstructure:"review"`
	Batch       BatchCfg     `mapstructure:"batch"`
}

// C cấu hình đã load gần nhất
var C Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.request_timeout", 1500*time.Millisecond)
	v.SetDefault("app.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "")

	v.SetDefault("gazetteer.source", "file")
	v.SetDefault("gazetteer.path", "data/gazetteer.json")
	v.SetDefault("gazetteer.collection", "admin_units")
	v.SetDefault("gazetteer.learned_aliases", false)

	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "address_resolver")

	v.SetDefault("redis.url", "redis://localhost:6379")

	v.SetDefault("meilisearch.enabled", false)
	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.index", "admin_units")
	v.SetDefault("meilisearch.timeout", 30*time.Second)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.l1_size", 10000)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("parser.debug", false)
	v.SetDefault("parser.max_address_length", 500)
	v.SetDefault("libpostal.enabled", false)

	v.SetDefault("review.enabled", false)

	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.max_items", 10000)
	v.SetDefault("batch.job_ttl", time.Hour)
}

// Load đọc file cấu hình (có thể rỗng), env override theo dạng APP_PORT, CACHE_BACKEND...
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("lỗi đọc config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("lỗi parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	C = cfg
	return &cfg, nil
}

// Validate kiểm tra các giá trị bắt buộc
func (c *Config) Validate() error {
	switch c.Gazetteer.Source {
	case "file":
		if c.Gazetteer.Path == "" {
			return errors.New("gazetteer.path không được để trống")
		}
	case "mongo":
		if c.Mongo.URL == "" {
			return errors.New("mongo.url không được để trống khi gazetteer.source=mongo")
		}
	default:
		return fmt.Errorf("gazetteer.source không hợp lệ: %q", c.Gazetteer.Source)
	}

	switch c.Cache.Backend {
	case "none", "memory", "redis", "mongo", "tiered":
	default:
		return fmt.Errorf("cache.backend không hợp lệ: %q", c.Cache.Backend)
	}

	// MongoDB là nơi lưu alias và review queue
	if (c.Gazetteer.LearnedAliases || c.Review.Enabled) && c.Mongo.URL == "" {
		return errors.New("mongo.url không được để trống khi bật learned_aliases hoặc review")
	}

	if c.Batch.Workers < 1 {
		return errors.New("batch.workers phải lớn hơn 0")
	}
	return nil
}

// RequestTimeout timeout cho một request parse
func RequestTimeout() time.Duration {
	if C.App.RequestTimeout > 0 {
		return C.App.RequestTimeout
	}
	return 1500 * time.Millisecond
}
