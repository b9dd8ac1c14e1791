package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-seller-session/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	for _, name := range []string{"PORT", "APP_NAME", "ENV", "LOG_LEVEL", "SESSION_MAX_AGE", "ACTIVITY_THROTTLE", "LOGIN_URL", "PAGE_IDLE_TIMEOUT", "STORAGE_BACKEND", "SQLITE_PATH", "REDIS_URL", "STORAGE_QUOTA_BYTES"} {
		t.Setenv(name, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, zerolog.InfoLevel, c.GetLogLevel())
	require.Equal(t, 24*time.Hour, c.GetMaxSessionAge())
	require.Zero(t, c.GetActivityThrottle())
	require.Equal(t, "/seller/login", c.GetLoginURL())
	require.Equal(t, 30*time.Minute, c.GetPageIdleTimeout())
	require.Equal(t, config.StorageSQLite, c.GetStorageBackend())
	require.Equal(t, 5*1024*1024, c.GetStorageQuotaBytes())
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_MAX_AGE", "2h")
	t.Setenv("ACTIVITY_THROTTLE", "30s")
	t.Setenv("PAGE_IDLE_TIMEOUT", "5m")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("STORAGE_QUOTA_BYTES", "1024")
	c := config.New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, zerolog.DebugLevel, c.GetLogLevel())
	require.Equal(t, 2*time.Hour, c.GetMaxSessionAge())
	require.Equal(t, 30*time.Second, c.GetActivityThrottle())
	require.Equal(t, 5*time.Minute, c.GetPageIdleTimeout())
	require.Equal(t, config.StorageRedis, c.GetStorageBackend())
	require.Equal(t, 1024, c.GetStorageQuotaBytes())
}

func TestConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("SESSION_MAX_AGE", "one day")
	t.Setenv("STORAGE_BACKEND", "cookies")
	t.Setenv("STORAGE_QUOTA_BYTES", "lots")
	c := config.New()

	require.Equal(t, zerolog.InfoLevel, c.GetLogLevel())
	require.Equal(t, 24*time.Hour, c.GetMaxSessionAge())
	require.Equal(t, config.StorageSQLite, c.GetStorageBackend())
	require.Equal(t, 5*1024*1024, c.GetStorageQuotaBytes())
}
