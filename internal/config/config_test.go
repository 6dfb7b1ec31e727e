package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "PORT", "JWT_EXPIRY_HOURS", "MAX_UPLOAD_SIZE_MB", "ALLOWED_ORIGINS", "STORAGE_BACKEND", "APP_ENV", "CORS_ALLOW_ALL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:5500"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.AllowsAllOrigins())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("APP_ENV", "Development")
	t.Setenv("ADMIN_RESET_ON_BOOT", "true")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,http://localhost:3000")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, StorageS3, cfg.StorageBackend)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.AdminResetOnBoot)
	assert.Equal(t, []string{"https://a.example", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestGetEnvHelpers_FallbackOnGarbage(t *testing.T) {
	t.Setenv("BUSSEVA_TEST_INT", "twelve")
	t.Setenv("BUSSEVA_TEST_BOOL", "maybe")

	assert.Equal(t, 7, getEnvInt("BUSSEVA_TEST_INT", 7))
	assert.True(t, getEnvBool("BUSSEVA_TEST_BOOL", true))
}

func TestAllowsAllOrigins_DevelopmentOnly(t *testing.T) {
	t.Setenv("CORS_ALLOW_ALL", "true")

	t.Setenv("APP_ENV", "production")
	assert.False(t, Load().AllowsAllOrigins())

	t.Setenv("APP_ENV", "development")
	assert.True(t, Load().AllowsAllOrigins())
}
