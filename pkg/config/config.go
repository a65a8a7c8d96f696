package config

import "time"

// Config holds runtime configuration for the waste-collection reminder bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Log       LogConfig       `mapstructure:"log"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis" validate:"required"`
	Backend   BackendConfig   `mapstructure:"backend" validate:"required"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// LogConfig controls log level and optional file output with rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// BotConfig holds the Telegram transport settings.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"omitempty,oneof=longpoll webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds settings for the metrics and health HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig defines connection parameters for the Redis client.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// BackendConfig describes the Hasura data service endpoint.
type BackendConfig struct {
	Endpoint    string        `mapstructure:"endpoint" validate:"required,url"`
	AdminSecret string        `mapstructure:"admin_secret" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// GeocoderConfig describes the Nominatim reverse-geocoding provider.
type GeocoderConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	QueueSize int           `mapstructure:"queue_size"`
	Pace      time.Duration `mapstructure:"pace"`
}

// RateLimitRule pairs an event budget with its window.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig controls inbound admission per chat.
type RateLimitConfig struct {
	PerChat   RateLimitRule `mapstructure:"per_chat"`
	Whitelist []int64       `mapstructure:"whitelist"`
	Backend   string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
}

// SentryConfig enables error reporting to Sentry.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// NotifyConfig controls the daily notification job.
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CronSpec string `mapstructure:"cron_spec"`
}

// ApplyDefaults fills in values the YAML file may omit.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = "longpoll"
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Geocoder.Endpoint == "" {
		c.Geocoder.Endpoint = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = "abfallbot/1.0"
	}
	if c.Geocoder.Timeout <= 0 {
		c.Geocoder.Timeout = 10 * time.Second
	}
	if c.Geocoder.QueueSize <= 0 {
		c.Geocoder.QueueSize = 32
	}
	if c.Geocoder.Pace <= 0 {
		c.Geocoder.Pace = time.Second
	}
	if c.RateLimit.PerChat.Limit <= 0 {
		c.RateLimit.PerChat.Limit = 3
	}
	if c.RateLimit.PerChat.Window == "" {
		c.RateLimit.PerChat.Window = "3s"
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = "memory"
	}
	if c.Notify.CronSpec == "" {
		c.Notify.CronSpec = "0 18 * * *"
	}
}

// PerChatLimit parses the per-chat admission rule into a count and window.
func (c *RateLimitConfig) PerChatLimit() (int, time.Duration, error) {
	window, err := time.ParseDuration(c.PerChat.Window)
	if err != nil {
		return 0, 0, err
	}

	return c.PerChat.Limit, window, nil
}

// IsWhitelisted reports whether the chat bypasses admission control.
func (c *RateLimitConfig) IsWhitelisted(chatID int64) bool {
	for _, id := range c.Whitelist {
		if id == chatID {
			return true
		}
	}
	return false
}
