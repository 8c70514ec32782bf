package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("UPLOAD_SCAN_TIMEOUT", "5s")
	t.Setenv("UPLOAD_STORAGE_BACKEND", "minio")
	t.Setenv("DB_CONNECT_ATTEMPTS", "10")
	t.Setenv("DB_CONNECT_BACKOFF", "500ms")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 5*time.Second, cfg.Upload.ScanTimeout)
	assert.Equal(t, StorageBackendMinIO, cfg.Upload.StorageBackend)
	assert.Equal(t, 10, cfg.Database.ConnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Database.ConnectBackoff)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "")
	t.Setenv("SYSTEM_USER_EMAIL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, DefaultMaxFileSize, cfg.Upload.MaxFileSize)
	assert.Equal(t, int64(5242880), cfg.Upload.MaxFileSize)
	assert.Equal(t, "system@sikap.local", cfg.SystemUserEmail)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, StorageBackendLocal, cfg.Upload.StorageBackend)
}

func TestLoadTracing(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("OTEL_SDK_DISABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")

	cfg := Load().Tracing

	assert.True(t, cfg.Disabled)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, "http://collector:4318", cfg.Endpoint)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "Asia/Jakarta"}
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, "1048576")
	assert.Equal(t, int64(1048576), getEnvInt64(key, 1))

	os.Setenv(key, "-5")
	assert.Equal(t, int64(7), getEnvInt64(key, 7))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration(key, time.Second))

	os.Setenv(key, "soon")
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))
}
