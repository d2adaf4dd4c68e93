// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Transport   TransportConfig   `mapstructure:"transport"`
	Dispatcher  DispatcherConfig  `mapstructure:"dispatcher"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Submissions SubmissionsConfig `mapstructure:"submissions"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Security    SecurityConfig    `mapstructure:"security"`
	Middleware  MiddlewareConfig  `mapstructure:"middleware"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TransportConfig selects and configures the SMS provider.
type TransportConfig struct {
	Provider       string               `mapstructure:"provider"`
	Timeout        int                  `mapstructure:"timeout"`
	RateLimit      float64              `mapstructure:"rate_limit"`
	RateLimitBurst int                  `mapstructure:"rate_limit_burst"`
	SentCacheTTL   int                  `mapstructure:"sent_cache_ttl_hours"`
	Twilio         TwilioConfig         `mapstructure:"twilio"`
	Webhook        WebhookConfig        `mapstructure:"webhook"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type TwilioConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
}

type WebhookConfig struct {
	URL     string `mapstructure:"url"`
	AuthKey string `mapstructure:"auth_key"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	FailureRatio     float64 `mapstructure:"failure_ratio"`
	ConsecutiveFails uint32  `mapstructure:"consecutive_fails"`
}

// DispatcherConfig tunes the batch dispatcher.
type DispatcherConfig struct {
	Concurrency           int  `mapstructure:"concurrency"`
	LockTTLSeconds        int  `mapstructure:"lock_ttl_seconds"`
	AdvanceTimeoutSeconds int  `mapstructure:"advance_timeout_seconds"`
	SendFirstOnReady      bool `mapstructure:"send_first_on_ready"`
}

type ChunkingConfig struct {
	BatchSize      int    `mapstructure:"batch_size"`
	MaxChunkLength int    `mapstructure:"max_chunk_length"`
	FetchTimeout   int    `mapstructure:"fetch_timeout"`
	TranscriptURL  string `mapstructure:"transcript_url"`
	NotifyOnFail   bool   `mapstructure:"notify_on_failure"`
}

type SubmissionsConfig struct {
	FreeLimit int `mapstructure:"free_limit"`
}

type AttachmentsConfig struct {
	Dir string `mapstructure:"dir"`
}

type SchedulerConfig struct {
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	AutoStart       bool `mapstructure:"auto_start"`
}

type SecurityConfig struct {
	CronSecret string `mapstructure:"cron_secret"`
}

type MiddlewareConfig struct {
	RateLimit      int      `mapstructure:"rate_limit"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig reads the YAML file at configPath and applies environment
// overrides, e.g. SECURITY_CRON_SECRET or DATABASE_HOST.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.migrations_path", "./migrations")
	v.SetDefault("redis.db", 0)
	v.SetDefault("transport.provider", "twilio")
	v.SetDefault("transport.timeout", 15)
	v.SetDefault("transport.rate_limit", 1.0)
	v.SetDefault("transport.rate_limit_burst", 5)
	v.SetDefault("transport.sent_cache_ttl_hours", 24)
	v.SetDefault("transport.twilio.base_url", "https://api.twilio.com")
	v.SetDefault("transport.circuit_breaker.max_requests", 3)
	v.SetDefault("transport.circuit_breaker.interval", 60)
	v.SetDefault("transport.circuit_breaker.timeout", 60)
	v.SetDefault("transport.circuit_breaker.failure_ratio", 0.6)
	v.SetDefault("transport.circuit_breaker.consecutive_fails", 5)
	v.SetDefault("dispatcher.concurrency", 4)
	v.SetDefault("dispatcher.lock_ttl_seconds", 120)
	v.SetDefault("dispatcher.advance_timeout_seconds", 10)
	v.SetDefault("dispatcher.send_first_on_ready", true)
	v.SetDefault("chunking.batch_size", 20)
	v.SetDefault("chunking.max_chunk_length", 500)
	v.SetDefault("chunking.fetch_timeout", 20)
	v.SetDefault("chunking.notify_on_failure", true)
	v.SetDefault("submissions.free_limit", 1)
	v.SetDefault("attachments.dir", "./data/attachments")
	v.SetDefault("scheduler.interval_minutes", 5)
	v.SetDefault("scheduler.auto_start", false)
	v.SetDefault("middleware.rate_limit", 100)
	v.SetDefault("middleware.rate_limit_burst", 1000)
	v.SetDefault("middleware.enable_cors", true)
	v.SetDefault("middleware.allowed_origins", []string{"*"})
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Security.CronSecret == "" {
		return fmt.Errorf("security.cron_secret is required")
	}
	switch c.Transport.Provider {
	case "twilio":
		if c.Transport.Twilio.AccountSID == "" || c.Transport.Twilio.AuthToken == "" || c.Transport.Twilio.From == "" {
			return fmt.Errorf("transport.twilio requires account_sid, auth_token and from")
		}
	case "webhook":
		if c.Transport.Webhook.URL == "" {
			return fmt.Errorf("transport.webhook.url is required")
		}
	default:
		return fmt.Errorf("unknown transport provider %q", c.Transport.Provider)
	}
	if c.Dispatcher.Concurrency < 1 {
		return fmt.Errorf("dispatcher.concurrency must be at least 1")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetURL returns the PostgreSQL connection URL used by the migration runner.
func (d *DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// GetAddr returns the Redis address.
func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
