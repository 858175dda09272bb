package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	FrontendURL string // CORS origin; empty means allow all (cloud mode)

	ModelPath    string
	MetadataPath string
	HistoryPath  string

	DBPath string // prediction audit log; empty disables it

	RedisAddr     string // result cache; empty falls back to in-memory
	RedisPassword string
	CacheTTL      time.Duration

	MaxUploadMB int64
}

func Load() *Config {
	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		FrontendURL:   getEnv("FRONTEND_URL", ""),
		ModelPath:     getEnv("MODEL_PATH", filepath.Join("models", "global_model.onnx")),
		MetadataPath:  getEnv("MODEL_METADATA_PATH", filepath.Join("models", "model_metadata.json")),
		HistoryPath:   getEnv("TRAINING_HISTORY_PATH", ""),
		DBPath:        getEnvAllowEmpty("DB_PATH", "predictions.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		MaxUploadMB:   getEnvAsInt64("MAX_UPLOAD_MB", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty treats a set-but-empty variable as an explicit
// value, so DB_PATH="" disables the prediction log.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
