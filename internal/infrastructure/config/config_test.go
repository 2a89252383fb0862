package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envKeys are cleared before each case so the host environment cannot leak in
var envKeys = []string{
	"INVSYNC_APP_NAME",
	"INVSYNC_APP_ENV",
	"INVSYNC_APP_PORT",
	"INVSYNC_DATABASE_HOST",
	"INVSYNC_DATABASE_PORT",
	"INVSYNC_DATABASE_USER",
	"INVSYNC_DATABASE_PASSWORD",
	"INVSYNC_DATABASE_DBNAME",
	"INVSYNC_DATABASE_SSLMODE",
	"INVSYNC_DATABASE_MAX_OPEN_CONNS",
	"INVSYNC_DATABASE_MAX_IDLE_CONNS",
	"INVSYNC_JWT_SECRET",
	"INVSYNC_REDIS_ENABLED",
	"INVSYNC_SYNC_INTERVAL",
	"INVSYNC_SYNC_PAGE_SIZE",
	"INVSYNC_SYNC_MAX_PAGES",
	"INVSYNC_SYNC_WATERMARK_POLICY",
	"INVSYNC_SYNC_PUSH_ON_ADJUST",
	"INVSYNC_SYNC_SCHEDULER_ENABLED",
	"INVSYNC_SYNC_RETRY_ATTEMPTS",
	"INVSYNC_SYNC_JOB_TIMEOUT",
	"INVSYNC_SYNC_LOCK_TTL",
	"INVSYNC_TELEMETRY_ENABLED",
	"INVSYNC_TELEMETRY_SAMPLING_RATIO",
	"INVSYNC_HTTP_RATE_LIMIT_ENABLED",
	"INVSYNC_HTTP_RATE_LIMIT_BURST",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "invsync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "invsync", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("loads sync defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.Sync.SchedulerEnabled)
		assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
		assert.Equal(t, 3, cfg.Sync.MaxConcurrent)
		assert.Equal(t, 100, cfg.Sync.PageSize)
		assert.Equal(t, 500, cfg.Sync.MaxPages)
		assert.Equal(t, 10, cfg.Sync.LowStockThreshold)
		assert.Equal(t, WatermarkClean, cfg.Sync.WatermarkPolicy)
		assert.Equal(t, 3, cfg.Sync.RetryAttempts)
		assert.Equal(t, time.Second, cfg.Sync.RetryBaseDelay)
		assert.Equal(t, 5*time.Second, cfg.Sync.RateLimitDefaultWait)
		assert.True(t, cfg.Sync.PushOnAdjust)
		assert.True(t, cfg.HTTP.MetricsEnabled)
		assert.False(t, cfg.HTTP.RateLimitEnabled)
		assert.Equal(t, 10.0, cfg.HTTP.RateLimitRPS)
		assert.Equal(t, 20, cfg.HTTP.RateLimitBurst)
	})

	t.Run("loads values from environment variables with INVSYNC prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVSYNC_APP_NAME", "test-app")
		t.Setenv("INVSYNC_APP_ENV", "testing")
		t.Setenv("INVSYNC_APP_PORT", "9000")
		t.Setenv("INVSYNC_DATABASE_HOST", "testdb.local")
		t.Setenv("INVSYNC_DATABASE_PORT", "5433")
		t.Setenv("INVSYNC_DATABASE_USER", "testuser")
		t.Setenv("INVSYNC_DATABASE_PASSWORD", "testpass")
		t.Setenv("INVSYNC_DATABASE_DBNAME", "testdb")
		t.Setenv("INVSYNC_DATABASE_SSLMODE", "require")
		t.Setenv("INVSYNC_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("INVSYNC_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("INVSYNC_REDIS_ENABLED", "true")
		t.Setenv("INVSYNC_SYNC_INTERVAL", "5m")
		t.Setenv("INVSYNC_SYNC_PAGE_SIZE", "50")
		t.Setenv("INVSYNC_SYNC_WATERMARK_POLICY", "on_success")
		t.Setenv("INVSYNC_SYNC_PUSH_ON_ADJUST", "false")
		t.Setenv("INVSYNC_SYNC_SCHEDULER_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
		assert.Equal(t, 50, cfg.Sync.PageSize)
		assert.Equal(t, WatermarkOnSuccess, cfg.Sync.WatermarkPolicy)
		assert.False(t, cfg.Sync.PushOnAdjust)
		assert.False(t, cfg.Sync.SchedulerEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVSYNC_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("INVSYNC_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVSYNC_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVSYNC_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_SyncValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"unknown watermark policy", "INVSYNC_SYNC_WATERMARK_POLICY", "sometimes", "sync.watermark_policy must be one of"},
		{"page size above marketplace maximum", "INVSYNC_SYNC_PAGE_SIZE", "501", "sync.page_size must be between 1 and 500"},
		{"negative page size", "INVSYNC_SYNC_PAGE_SIZE", "-5", "sync.page_size must be between 1 and 500"},
		{"negative max pages", "INVSYNC_SYNC_MAX_PAGES", "-1", "sync.max_pages must be positive"},
		{"negative retry attempts", "INVSYNC_SYNC_RETRY_ATTEMPTS", "-1", "sync.retry_attempts must be positive"},
		{"negative rate limit burst", "INVSYNC_HTTP_RATE_LIMIT_BURST", "-1", "http.rate_limit_rps and http.rate_limit_burst cannot be negative"},
		{"sampling ratio above one", "INVSYNC_TELEMETRY_SAMPLING_RATIO", "1.5", "telemetry.sampling_ratio must be between 0 and 1"},
		{"negative lock ttl", "INVSYNC_SYNC_LOCK_TTL", "-1m", "sync.lock_ttl (-1m0s) must be greater than sync.job_timeout"},
		{"lock ttl shorter than job timeout", "INVSYNC_SYNC_LOCK_TTL", "10m", "sync.lock_ttl (10m0s) must be greater than sync.job_timeout (30m0s)"},
		{"lock ttl equal to job timeout", "INVSYNC_SYNC_LOCK_TTL", "30m", "sync.lock_ttl (30m0s) must be greater than sync.job_timeout (30m0s)"},
		{"negative job timeout", "INVSYNC_SYNC_JOB_TIMEOUT", "-5m", "sync.job_timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_LockOutlivesJob(t *testing.T) {
	t.Run("defaults keep the lock longer than a job", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Greater(t, cfg.Sync.LockTTL, cfg.Sync.JobTimeout)
	})

	t.Run("long job needs a longer lock", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVSYNC_SYNC_JOB_TIMEOUT", "2h")
		t.Setenv("INVSYNC_SYNC_LOCK_TTL", "30m")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.lock_ttl (30m0s) must be greater than sync.job_timeout (2h0m0s)")
	})

	t.Run("lock above job timeout is accepted", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVSYNC_SYNC_JOB_TIMEOUT", "2h")
		t.Setenv("INVSYNC_SYNC_LOCK_TTL", "2h30m")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, cfg.Sync.JobTimeout)
		assert.Equal(t, 150*time.Minute, cfg.Sync.LockTTL)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	// Helper to set valid production base config
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("INVSYNC_APP_ENV", "production")
		t.Setenv("INVSYNC_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("INVSYNC_DATABASE_PASSWORD", "secure-password")
		t.Setenv("INVSYNC_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("INVSYNC_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("INVSYNC_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("INVSYNC_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("INVSYNC_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}
