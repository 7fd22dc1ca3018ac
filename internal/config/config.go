package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	Workers int    `yaml:"workers" envconfig:"BOT_WORKERS"` // polling workers
	// Sticker file IDs the transport picks from at random.
	Stickers StickerConfig `yaml:"stickers"`
}

type StickerConfig struct {
	Greeting []string `yaml:"greeting"`
	Tada     []string `yaml:"tada"`
}

type LogConfig struct {
	Level    string `yaml:"level" envconfig:"LOG_LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" envconfig:"LOG_FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" envconfig:"LOG_SAMPLING"` // enable sampling in prod
}

type WebConfig struct {
	Port        int           `yaml:"port" envconfig:"WEB_PORT"`
	AdminAPIKey string        `yaml:"admin_api_key" envconfig:"ADMIN_API_KEY"`
	JWTSecret   string        `yaml:"jwt_secret" envconfig:"ADMIN_JWT_SECRET"`
	SecureAuth  bool          `yaml:"secure_auth" envconfig:"ADMIN_SECURE_AUTH"`
	AuthTTL     time.Duration `yaml:"auth_ttl"`
}

type MarketplaceConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"MARKETPLACE_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"`
}

type GeocoderConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"GEOCODER_BASE_URL"`
	APIKey  string `yaml:"api_key" envconfig:"GEOCODER_API_KEY"`
	// TargetCountry is the only country code sellers may register from.
	TargetCountry string        `yaml:"target_country" envconfig:"GEOCODER_TARGET_COUNTRY"`
	Timeout       time.Duration `yaml:"timeout"`
}

type PhotosConfig struct {
	Endpoint  string `yaml:"endpoint" envconfig:"PHOTOS_ENDPOINT"`
	Region    string `yaml:"region" envconfig:"PHOTOS_REGION"`
	Bucket    string `yaml:"bucket" envconfig:"PHOTOS_BUCKET"`
	AccessKey string `yaml:"access_key" envconfig:"PHOTOS_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"PHOTOS_SECRET_KEY"`
	MaxWidth  int    `yaml:"max_width"`
	MaxHeight int    `yaml:"max_height"`
}

type SessionConfig struct {
	// Store selects the session backend: "memory" or "redis".
	Store string        `yaml:"store" envconfig:"SESSION_STORE"`
	TTL   time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

type Config struct {
	Bot         BotConfig         `yaml:"bot"`
	Log         LogConfig         `yaml:"log"`
	Web         WebConfig         `yaml:"web"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Geocoder    GeocoderConfig    `yaml:"geocoder"`
	Photos      PhotosConfig      `yaml:"photos"`
	Session     SessionConfig     `yaml:"session"`
	Redis       RedisConfig       `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// LoadConfig reads the YAML file, overlays environment variables and applies
// defaults plus minimal validation.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Marketplace.Timeout <= 0 {
		cfg.Marketplace.Timeout = 10 * time.Second
	}
	if cfg.Geocoder.Timeout <= 0 {
		cfg.Geocoder.Timeout = 10 * time.Second
	}
	if cfg.Geocoder.TargetCountry == "" {
		cfg.Geocoder.TargetCountry = "RU"
	}
	if cfg.Photos.MaxWidth <= 0 {
		cfg.Photos.MaxWidth = 800
	}
	if cfg.Photos.MaxHeight <= 0 {
		cfg.Photos.MaxHeight = 600
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = SessionStoreMemory
	}
	cfg.Session.TTL = normalizeTTL(cfg.Session.TTL)
	if cfg.Web.AuthTTL <= 0 {
		cfg.Web.AuthTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Marketplace.BaseURL == "" {
		return nil, errors.New("marketplace.base_url is required")
	}
	switch strings.ToLower(cfg.Session.Store) {
	case SessionStoreMemory:
		cfg.Session.Store = SessionStoreMemory
	case SessionStoreRedis:
		cfg.Session.Store = SessionStoreRedis
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis.addr is required when session.store is 'redis'")
		}
	default:
		return nil, fmt.Errorf("invalid session.store %q; allowed: memory, redis", cfg.Session.Store)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// normalizeTTL gives abandoned sessions a bounded lifetime even when the
// config leaves it unset.
func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}
