// internal/config/config_test.go
package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// withEnv positionne des variables et restaure l'environnement à la fin du test
func withEnv(t *testing.T, values map[string]string) {
	t.Helper()

	oldValues := make(map[string]string)
	for key, value := range values {
		oldValues[key] = os.Getenv(key)
		if value == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, value)
		}
	}

	t.Cleanup(func() {
		for key, oldValue := range oldValues {
			if oldValue != "" {
				os.Setenv(key, oldValue)
			} else {
				os.Unsetenv(key)
			}
		}
	})
}

func TestConfigLoad(t *testing.T) {
	withEnv(t, map[string]string{
		"PORT": "", "BACKEND_URL": "", "BACKEND_TIMEOUT": "", "POLL_INTERVAL": "",
		"SESSION_IDLE_TIMEOUT": "", "CLEANUP_INTERVAL": "", "STORAGE_TYPE": "",
		"STORAGE_PATH": "", "LOG_LEVEL": "", "ENVIRONMENT": "", "MODEL_FAST": "",
		"MODEL_QUALITY": "", "RATE_LIMIT_PER_MINUTE": "", "CORS_ALLOWED_ORIGIN": "",
	})

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "http://127.0.0.1:8002", cfg.Backend.URL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "veo-3.1-fast-generate-preview", cfg.Backend.FastModel)
	assert.Equal(t, "veo-3.1-generate-preview", cfg.Backend.QualityModel)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 60, cfg.RequestsPerMinute)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "./Generated_Video", cfg.Storage.BasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
}

func TestConfigWithEnvVars(t *testing.T) {
	withEnv(t, map[string]string{
		"PORT":                  "9000",
		"BACKEND_URL":           "http://veo-backend:8002",
		"BACKEND_TIMEOUT":       "2m",
		"POLL_INTERVAL":         "2s",
		"SESSION_IDLE_TIMEOUT":  "10m",
		"RATE_LIMIT_PER_MINUTE": "5",
		"MAX_IMAGE_SIZE":        "1024",
		"MODEL_FAST":            "veo-custom-fast",
	})

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://veo-backend:8002", cfg.Backend.URL)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 5, cfg.RequestsPerMinute)
	assert.Equal(t, int64(1024), cfg.MaxImageSize)
	assert.Equal(t, "veo-custom-fast", cfg.Backend.FastModel)
}

func TestConfigInvalidValuesFallBack(t *testing.T) {
	withEnv(t, map[string]string{
		"POLL_INTERVAL":         "soon",
		"BACKEND_TIMEOUT":       "-5s",
		"RATE_LIMIT_PER_MINUTE": "many",
		"MAX_VIDEO_SIZE":        "big",
	})

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 60, cfg.RequestsPerMinute)
	assert.Equal(t, int64(200*1024*1024), cfg.MaxVideoSize)
}

func TestStorageConfig(t *testing.T) {
	withEnv(t, map[string]string{
		"STORAGE_TYPE":      "garage",
		"GARAGE_ENDPOINT":   "https://s3.garage.com",
		"GARAGE_ACCESS_KEY": "test-access",
		"GARAGE_SECRET_KEY": "test-secret",
		"GARAGE_BUCKET":     "test-bucket",
		"GARAGE_REGION":     "eu-west-1",
	})

	cfg := Load()

	assert.Equal(t, "garage", cfg.Storage.Type)
	assert.Equal(t, "https://s3.garage.com", cfg.Storage.Endpoint)
	assert.Equal(t, "test-access", cfg.Storage.AccessKey)
	assert.Equal(t, "test-secret", cfg.Storage.SecretKey)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
}
