package config

import (
	"os"
	"strconv"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultMaxFileSize is the upload ceiling (5 MiB).
	DefaultMaxFileSize int64 = 5 * 1024 * 1024

	StorageBackendLocal = "local"
	StorageBackendMinIO = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// ConnectTimeout bounds each startup ping; ConnectAttempts pings are made
	// ConnectBackoff apart before giving up.
	ConnectTimeout  time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// UploadConfig controls the document ingestion pipeline.
type UploadConfig struct {
	// Root is the directory relative upload paths are resolved against (local backend).
	Root           string
	MaxFileSize    int64
	StorageBackend string
	ScanTimeout    time.Duration
	// ScanDelay simulates the latency of an external scanning engine.
	ScanDelay time.Duration
}

// RedisConfig configures the optional scan verdict cache. An empty Addr disables it.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	ScanCacheTTL time.Duration
}

// TracingConfig mirrors the standard OTEL_* variables the exporter setup reads.
type TracingConfig struct {
	Disabled    bool
	ServiceName string
	Environment string
	// Protocol is "grpc" or "http/protobuf".
	Protocol   string
	Endpoint   string
	Sampler    string
	SamplerArg string
}

// LogConfig selects zap level and encoding.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env      string
	AppHost  string
	Port     string
	Timezone string
	// SystemUserEmail identifies the account public submissions are attributed to.
	SystemUserEmail string
	Database        DatabaseConfig
	MinIO           MinIOConfig
	Upload          UploadConfig
	Redis           RedisConfig
	Tracing         TracingConfig
	Log             LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	env := getEnv("APP_ENV", EnvDevelopment)
	return &AppConfig{
		Env:             env,
		AppHost:         getEnv("APP_HOST", "localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		Timezone:        getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		SystemUserEmail: getEnv("SYSTEM_USER_EMAIL", "system@sikap.local"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectTimeout:     getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:     getEnvDuration("DB_CONNECT_BACKOFF", 2*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Upload: UploadConfig{
			Root:           getEnv("UPLOAD_ROOT", "./public"),
			MaxFileSize:    getEnvInt64("UPLOAD_MAX_FILE_SIZE", DefaultMaxFileSize),
			StorageBackend: getEnv("UPLOAD_STORAGE_BACKEND", StorageBackendLocal),
			ScanTimeout:    getEnvDuration("UPLOAD_SCAN_TIMEOUT", 30*time.Second),
			ScanDelay:      getEnvDuration("UPLOAD_SCAN_DELAY", 100*time.Millisecond),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", ""),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			ScanCacheTTL: getEnvDuration("SCAN_CACHE_TTL", 24*time.Hour),
		},
		Tracing: TracingConfig{
			Disabled:    getEnvBool("OTEL_SDK_DISABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "sikap-upload"),
			Environment: env,
			Protocol:    getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
			Sampler:     getEnv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio"),
			SamplerArg:  getEnv("OTEL_TRACES_SAMPLER_ARG", "1.0"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
