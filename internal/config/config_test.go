package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment a valid config needs
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "authuser")
	t.Setenv("DB_PASSWORD", "authpass")
	t.Setenv("DB_NAME", "authdb")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.False(t, cfg.AdminSignupEnabled)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "missing DB_HOST", unset: "DB_HOST"},
		{name: "missing DB_USER", unset: "DB_USER"},
		{name: "missing SESSION_SECRET", unset: "SESSION_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_MAX_AGE", "1h")
	t.Setenv("ADMIN_SIGNUP_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.True(t, cfg.AdminSignupEnabled)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad DB_PORT", key: "DB_PORT", value: "not-a-port"},
		{name: "bad SESSION_MAX_AGE", key: "SESSION_MAX_AGE", value: "never"},
		{name: "bad ADMIN_SIGNUP_ENABLED", key: "ADMIN_SIGNUP_ENABLED", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database = DatabaseConfig{
		Host:     "db.local",
		Port:     3306,
		User:     "authuser",
		Password: "authpass",
		DBName:   "authdb",
	}

	assert.Equal(t, "authuser:authpass@tcp(db.local:3306)/authdb?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := &Config{}
	cfg.Redis = RedisConfig{Host: "cache.local", Port: 6380}

	assert.Equal(t, "cache.local:6380", cfg.RedisAddr())
}
