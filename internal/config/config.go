package config

import (
	"os"
	"strconv"
	"time"

	"veo-console/pkg/storage"
)

type Config struct {
	Port               string
	Backend            BackendConfig
	PollInterval       time.Duration
	SessionIdleTimeout time.Duration
	CleanupInterval    time.Duration
	RequestsPerMinute  int
	AllowedOrigin      string
	MaxImageSize       int64
	MaxVideoSize       int64
	Storage            *storage.StorageConfig
	LogLevel           string
	Environment        string
}

// BackendConfig décrit le backend de génération distant
type BackendConfig struct {
	URL          string
	Timeout      time.Duration
	FastModel    string
	QualityModel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),
		Backend: BackendConfig{
			URL:          getEnv("BACKEND_URL", "http://127.0.0.1:8002"),
			Timeout:      getEnvDuration("BACKEND_TIMEOUT", 60*time.Second),
			FastModel:    getEnv("MODEL_FAST", "veo-3.1-fast-generate-preview"),
			QualityModel: getEnv("MODEL_QUALITY", "veo-3.1-generate-preview"),
		},
		PollInterval:       getEnvDuration("POLL_INTERVAL", 5*time.Second),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CleanupInterval:    getEnvDuration("CLEANUP_INTERVAL", time.Minute),
		RequestsPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigin:      getEnv("CORS_ALLOWED_ORIGIN", "*"),
		MaxImageSize:       getEnvInt64("MAX_IMAGE_SIZE", 20*1024*1024),
		MaxVideoSize:       getEnvInt64("MAX_VIDEO_SIZE", 200*1024*1024),
		Storage: &storage.StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "filesystem"),
			BasePath:  getEnv("STORAGE_PATH", "./Generated_Video"),
			Endpoint:  getEnv("GARAGE_ENDPOINT", ""),
			AccessKey: getEnv("GARAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("GARAGE_SECRET_KEY", ""),
			Bucket:    getEnv("GARAGE_BUCKET", "veo-results"),
			Region:    getEnv("GARAGE_REGION", "garage"),
		},
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration ignore les durées invalides ou non positives
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
