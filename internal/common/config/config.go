// Package config provides application configuration loading and access.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var globalConfig *Config

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Crypto    CryptoConfig    `mapstructure:"crypto"`
	OSS       OSSConfig       `mapstructure:"oss"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Cron      CronConfig      `mapstructure:"cron"`
	Loyalty   LoyaltyConfig   `mapstructure:"loyalty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Name            string `mapstructure:"name"`
	Mode            string `mapstructure:"mode"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogMode         bool   `mapstructure:"log_mode"`
	SlowThreshold   int    `mapstructure:"slow_threshold"`
}

// DSN returns the postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Timezone,
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Addr returns the host:port address.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	AccessTokenExpire  int    `mapstructure:"access_token_expire"`
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire"`
	Issuer             string `mapstructure:"issuer"`
}

// AccessTokenDuration returns the access token lifetime.
func (j *JWTConfig) AccessTokenDuration() time.Duration {
	return time.Duration(j.AccessTokenExpire) * time.Hour
}

// RefreshTokenDuration returns the refresh token lifetime.
func (j *JWTConfig) RefreshTokenDuration() time.Duration {
	return time.Duration(j.RefreshTokenExpire) * time.Hour
}

// CryptoConfig holds hashing and encryption settings.
type CryptoConfig struct {
	AESKey     string `mapstructure:"aes_key"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// OSSConfig holds object storage settings.
type OSSConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CustomDomain    string `mapstructure:"custom_domain"`
	UploadDir       string `mapstructure:"upload_dir"`
}

// WhatsAppConfig holds WhatsApp notification settings.
type WhatsAppConfig struct {
	Provider   string `mapstructure:"provider"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Caller     bool   `mapstructure:"caller"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RateLimitConfig holds request throttling settings.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// CronConfig holds scheduled job settings.
type CronConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Secret               string `mapstructure:"secret"`
	ExpireRewardsSpec    string `mapstructure:"expire_rewards_spec"`
	SendRemindersSpec    string `mapstructure:"send_reminders_spec"`
	ReminderHorizonHours int    `mapstructure:"reminder_horizon_hours"`
}

// LoyaltyConfig holds loyalty program defaults.
type LoyaltyConfig struct {
	DefaultRewardValidityDays int    `mapstructure:"default_reward_validity_days"`
	CardImageSize             int    `mapstructure:"card_image_size"`
	StatusBaseURL             string `mapstructure:"status_base_url"`
	FeatureCacheTTL           int    `mapstructure:"feature_cache_ttl"`
	PageSizeMax               int    `mapstructure:"page_size_max"`
	ExportRowsMax             int    `mapstructure:"export_rows_max"`
}

// FeatureCacheTTLDuration returns the feature flag cache TTL.
func (l *LoyaltyConfig) FeatureCacheTTLDuration() time.Duration {
	return time.Duration(l.FeatureCacheTTL) * time.Second
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Running with defaults plus environment overrides is allowed.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the loaded configuration, with defaults when Load was never called.
func Get() *Config {
	if globalConfig == nil {
		v := viper.New()
		setDefaults(v)
		cfg := &Config{}
		_ = v.Unmarshal(cfg)
		globalConfig = cfg
	}
	return globalConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "fideliza-backend")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "fideliza")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "America/Sao_Paulo")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_mode", true)
	v.SetDefault("database.slow_threshold", 200)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.min_idle_conns", 10)
	v.SetDefault("redis.dial_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_token_expire", 24)
	v.SetDefault("jwt.refresh_token_expire", 168)
	v.SetDefault("jwt.issuer", "fideliza")

	v.SetDefault("crypto.bcrypt_cost", 10)

	v.SetDefault("oss.enabled", false)
	v.SetDefault("oss.upload_dir", "uploads/")

	v.SetDefault("whatsapp.provider", "mock")

	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "./logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9100)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "fideliza-backend")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 300)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.secret", "")
	v.SetDefault("cron.expire_rewards_spec", "0 3 * * *")
	v.SetDefault("cron.send_reminders_spec", "0 12 * * *")
	v.SetDefault("cron.reminder_horizon_hours", 24)

	v.SetDefault("loyalty.default_reward_validity_days", 30)
	v.SetDefault("loyalty.card_image_size", 512)
	v.SetDefault("loyalty.status_base_url", "https://app.fideliza.com.br/status")
	v.SetDefault("loyalty.feature_cache_ttl", 60)
	v.SetDefault("loyalty.page_size_max", 100)
	v.SetDefault("loyalty.export_rows_max", 5000)
}

// IsDebug reports whether the server runs in debug mode.
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

// IsRelease reports whether the server runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}
