package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level     string // debug, info, warn, error
	Format    string // json, console
	Output    string // stdout, stderr, or file path
	GormLevel string // silent, error, warn, info
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// When disabled, sync locks are held in process memory.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings used to verify caller identity
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	MetricsEnabled   bool
	RateLimitEnabled bool
	RateLimitRPS     float64 // Sustained requests per second per client IP
	RateLimitBurst   int
}

// TelemetryConfig holds OpenTelemetry trace export settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	Insecure          bool
}

// Watermark policies control when a sync run moves marketplaces.last_sync
const (
	// WatermarkClean advances only when every sub-sync succeeded without item errors
	WatermarkClean = "clean"
	// WatermarkOnSuccess advances when every sub-sync succeeded
	WatermarkOnSuccess = "on_success"
	// WatermarkAlways advances after every full sync regardless of outcome
	WatermarkAlways = "always"
)

// SyncConfig holds marketplace synchronization settings
type SyncConfig struct {
	SchedulerEnabled     bool
	Interval             time.Duration // Period between scheduled syncs of all active marketplaces
	MaxConcurrent        int           // Worker pool size of the scheduler
	JobTimeout           time.Duration // Upper bound of one scheduled marketplace sync
	LockTTL              time.Duration // Expiry of the per-marketplace sync lock
	PageSize             int
	MaxPages             int
	LowStockThreshold    int
	WatermarkPolicy      string
	RetryAttempts        int
	RetryBaseDelay       time.Duration
	RateLimitDefaultWait time.Duration // Wait applied to a 429 without a usable Retry-After
	RequestsPerSecond    float64
	RequestTimeout       time.Duration
	PushOnAdjust         bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with INVSYNC_ prefix (e.g., INVSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("INVSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit viper default so that an
	// unset key and "false" stay distinguishable
	v.SetDefault("sync.scheduler_enabled", true)
	v.SetDefault("sync.push_on_adjust", true)
	v.SetDefault("http.metrics_enabled", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.insecure", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:     v.GetString("log.level"),
			Format:    v.GetString("log.format"),
			Output:    v.GetString("log.output"),
			GormLevel: v.GetString("log.gorm_level"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			MetricsEnabled:   v.GetBool("http.metrics_enabled"),
			RateLimitEnabled: v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:     v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
		},
		Sync: SyncConfig{
			SchedulerEnabled:     v.GetBool("sync.scheduler_enabled"),
			Interval:             v.GetDuration("sync.interval"),
			MaxConcurrent:        v.GetInt("sync.max_concurrent"),
			JobTimeout:           v.GetDuration("sync.job_timeout"),
			LockTTL:              v.GetDuration("sync.lock_ttl"),
			PageSize:             v.GetInt("sync.page_size"),
			MaxPages:             v.GetInt("sync.max_pages"),
			LowStockThreshold:    v.GetInt("sync.low_stock_threshold"),
			WatermarkPolicy:      v.GetString("sync.watermark_policy"),
			RetryAttempts:        v.GetInt("sync.retry_attempts"),
			RetryBaseDelay:       v.GetDuration("sync.retry_base_delay"),
			RateLimitDefaultWait: v.GetDuration("sync.rate_limit_default_wait"),
			RequestsPerSecond:    v.GetFloat64("sync.requests_per_second"),
			RequestTimeout:       v.GetDuration("sync.request_timeout"),
			PushOnAdjust:         v.GetBool("sync.push_on_adjust"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "invsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "invsync"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.GormLevel == "" {
		cfg.Log.GormLevel = "warn"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// A synchronous sync request can page through a large catalog
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.HTTP.RateLimitRPS == 0 {
		cfg.HTTP.RateLimitRPS = 10
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 20
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 15 * time.Minute
	}
	if cfg.Sync.MaxConcurrent == 0 {
		cfg.Sync.MaxConcurrent = 3
	}
	if cfg.Sync.JobTimeout == 0 {
		cfg.Sync.JobTimeout = 30 * time.Minute
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 45 * time.Minute
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.MaxPages == 0 {
		cfg.Sync.MaxPages = 500
	}
	if cfg.Sync.LowStockThreshold == 0 {
		cfg.Sync.LowStockThreshold = 10
	}
	if cfg.Sync.WatermarkPolicy == "" {
		cfg.Sync.WatermarkPolicy = WatermarkClean
	}
	if cfg.Sync.RetryAttempts == 0 {
		cfg.Sync.RetryAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = time.Second
	}
	if cfg.Sync.RateLimitDefaultWait == 0 {
		cfg.Sync.RateLimitDefaultWait = 5 * time.Second
	}
	if cfg.Sync.RequestsPerSecond == 0 {
		cfg.Sync.RequestsPerSecond = 5
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 30 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Sync.WatermarkPolicy {
	case WatermarkClean, WatermarkOnSuccess, WatermarkAlways:
	default:
		return fmt.Errorf("sync.watermark_policy must be one of %s, %s, %s, got %q",
			WatermarkClean, WatermarkOnSuccess, WatermarkAlways, c.Sync.WatermarkPolicy)
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 500 {
		return fmt.Errorf("sync.page_size must be between 1 and 500, got %d", c.Sync.PageSize)
	}
	if c.Sync.MaxPages < 1 {
		return fmt.Errorf("sync.max_pages must be positive")
	}
	if c.Sync.MaxConcurrent < 1 {
		return fmt.Errorf("sync.max_concurrent must be positive")
	}
	if c.Sync.JobTimeout <= 0 {
		return fmt.Errorf("sync.job_timeout must be positive")
	}
	// the lock must outlive the job it guards
	if c.Sync.LockTTL <= 0 || c.Sync.LockTTL <= c.Sync.JobTimeout {
		return fmt.Errorf("sync.lock_ttl (%s) must be greater than sync.job_timeout (%s)",
			c.Sync.LockTTL, c.Sync.JobTimeout)
	}
	if c.Sync.RetryAttempts < 1 {
		return fmt.Errorf("sync.retry_attempts must be positive")
	}
	if c.Sync.LowStockThreshold < 1 {
		return fmt.Errorf("sync.low_stock_threshold must be positive")
	}
	if c.Sync.RequestsPerSecond < 0 {
		return fmt.Errorf("sync.requests_per_second cannot be negative")
	}
	if c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("http.rate_limit_rps and http.rate_limit_burst cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		// CORS must not use wildcard with credentials
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
