package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Limit bounds accepted for a daily limit, in minutes.
const (
	MinLimitMinutes = 1
	MaxLimitMinutes = 1440
)

// Config holds the complete application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Tracker       TrackerConfig       `mapstructure:"tracker"`
	Tabs          TabsConfig          `mapstructure:"tabs"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Sites         []SiteConfig        `mapstructure:"sites"`
}

// ServerConfig defines listen addresses for the API and metrics endpoints
type ServerConfig struct {
	BindAddress    string   `mapstructure:"bind_address"`
	APIPort        int      `mapstructure:"api_port"`
	MetricsPort    int      `mapstructure:"metrics_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Path  string      `mapstructure:"path"`
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackerConfig defines time accounting behaviour
type TrackerConfig struct {
	TickInterval        string `mapstructure:"tick_interval"`
	RolloverCheck       bool   `mapstructure:"rollover_check"`
	RepeatNotifications bool   `mapstructure:"repeat_notifications"`
}

// TabsConfig defines the tab registry size
type TabsConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// NotificationsConfig defines the pending notification queue
type NotificationsConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// SiteConfig describes one tracked site
type SiteConfig struct {
	Domain       string `mapstructure:"domain"`
	Name         string `mapstructure:"name"`
	Icon         string `mapstructure:"icon"`
	DefaultLimit int    `mapstructure:"default_limit"`
}

// DefaultSites is the built-in tracked site table.
var DefaultSites = []SiteConfig{
	{Domain: "youtube.com", Name: "YouTube", Icon: "🎥", DefaultLimit: 60},
	{Domain: "twitter.com", Name: "X (Twitter)", Icon: "🐦", DefaultLimit: 60},
	{Domain: "facebook.com", Name: "Facebook", Icon: "👥", DefaultLimit: 60},
	{Domain: "instagram.com", Name: "Instagram", Icon: "📷", DefaultLimit: 60},
	{Domain: "tiktok.com", Name: "TikTok", Icon: "🎵", DefaultLimit: 60},
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("SNSTIMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.api_port", 7465)
	v.SetDefault("server.metrics_port", 9465)
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Storage defaults
	v.SetDefault("storage.path", "/var/lib/snstimer/snstimer.bolt")
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "snstimer")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Tracker defaults
	v.SetDefault("tracker.tick_interval", "1m")
	v.SetDefault("tracker.rollover_check", true)
	v.SetDefault("tracker.repeat_notifications", false)

	v.SetDefault("tabs.cache_size", 512)
	v.SetDefault("notifications.queue_size", 32)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	interval, err := time.ParseDuration(cfg.Tracker.TickInterval)
	if err != nil {
		return fmt.Errorf("invalid tick interval %q: %w", cfg.Tracker.TickInterval, err)
	}
	if interval < time.Second {
		return fmt.Errorf("tick interval must be at least 1s, got %s", interval)
	}

	if cfg.Tabs.CacheSize <= 0 {
		return fmt.Errorf("tabs cache size must be positive: %d", cfg.Tabs.CacheSize)
	}
	if cfg.Notifications.QueueSize <= 0 {
		return fmt.Errorf("notification queue size must be positive: %d", cfg.Notifications.QueueSize)
	}

	if len(cfg.Sites) == 0 {
		cfg.Sites = append([]SiteConfig(nil), DefaultSites...)
	}
	seen := make(map[string]bool, len(cfg.Sites))
	for i := range cfg.Sites {
		site := &cfg.Sites[i]
		site.Domain = strings.ToLower(strings.TrimSpace(site.Domain))
		if site.Domain == "" {
			return fmt.Errorf("site %d: domain is required", i)
		}
		if seen[site.Domain] {
			return fmt.Errorf("site %s: duplicate domain", site.Domain)
		}
		seen[site.Domain] = true
		if site.Name == "" {
			site.Name = site.Domain
		}
		if site.DefaultLimit < MinLimitMinutes || site.DefaultLimit > MaxLimitMinutes {
			return fmt.Errorf("site %s: default limit %d outside %d-%d minutes",
				site.Domain, site.DefaultLimit, MinLimitMinutes, MaxLimitMinutes)
		}
	}

	switch cfg.Storage.Type {
	case "":
		cfg.Storage.Type = "bolt"
	case "bolt", "redis":
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "bolt" {
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	}

	return nil
}
