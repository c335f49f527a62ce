// Package config loads invitekit settings from defaults, an optional config
// file, INVITEKIT_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
)

// EnvPrefix prefixes every environment override; "server.addr" becomes
// INVITEKIT_SERVER_ADDR.
const EnvPrefix = "INVITEKIT"

// Delivery backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config holds all configuration options.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Fonts    FontsConfig    `mapstructure:"fonts"`
	Render   RenderConfig   `mapstructure:"render"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// BaseURL is the public origin embedded in RSVP QR codes and download
	// links. Empty disables QR codes.
	BaseURL      string        `mapstructure:"base_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AllowedOrigins feeds CORS. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig points at a template catalog. Empty Path uses the built-in
// catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// AssetsConfig locates background artwork.
type AssetsConfig struct {
	Dir string `mapstructure:"dir"`
	// CacheDir stores remote assets. Empty uses the user cache directory.
	CacheDir string `mapstructure:"cache_dir"`
}

// FontsConfig locates font files.
type FontsConfig struct {
	Dir string `mapstructure:"dir"`
}

// RenderConfig bounds rendering concurrency.
type RenderConfig struct {
	Workers int `mapstructure:"workers"`
}

// DeliveryConfig selects and tunes the delivery store.
type DeliveryConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Render: RenderConfig{Workers: runtime.NumCPU()},
		Delivery: DeliveryConfig{
			Backend:       BackendMemory,
			TTL:           delivery.DefaultTTL,
			Retention:     delivery.DefaultRetention,
			SweepInterval: delivery.DefaultSweepInterval,
		},
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "invitekit:"},
		SQLite: SQLiteConfig{Path: "invitekit.db"},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "invitekit",
			Collection: "deliveries",
		},
		Log: LogConfig{Level: "info"},
	}
}

// New returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("assets.dir", d.Assets.Dir)
	v.SetDefault("assets.cache_dir", d.Assets.CacheDir)
	v.SetDefault("fonts.dir", d.Fonts.Dir)
	v.SetDefault("render.workers", d.Render.Workers)
	v.SetDefault("delivery.backend", d.Delivery.Backend)
	v.SetDefault("delivery.ttl", d.Delivery.TTL)
	v.SetDefault("delivery.retention", d.Delivery.Retention)
	v.SetDefault("delivery.sweep_interval", d.Delivery.SweepInterval)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.collection", d.Mongo.Collection)
	v.SetDefault("log.level", d.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes the
// result. An empty path reads no file.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var problems []error
	switch c.Delivery.Backend {
	case BackendMemory, BackendRedis, BackendSQLite, BackendMongo:
	default:
		problems = append(problems, fmt.Errorf("delivery.backend %q is not one of memory, redis, sqlite, mongo", c.Delivery.Backend))
	}
	if c.Delivery.TTL <= 0 {
		problems = append(problems, fmt.Errorf("delivery.ttl must be positive"))
	}
	if c.Delivery.Retention < 0 {
		problems = append(problems, fmt.Errorf("delivery.retention must not be negative"))
	}
	if c.Delivery.SweepInterval <= 0 {
		problems = append(problems, fmt.Errorf("delivery.sweep_interval must be positive"))
	}
	if c.Render.Workers < 0 {
		problems = append(problems, fmt.Errorf("render.workers must not be negative"))
	}
	if c.Server.BaseURL != "" && !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		problems = append(problems, fmt.Errorf("server.base_url must be an http(s) URL"))
	}
	return errors.Join(problems...)
}
