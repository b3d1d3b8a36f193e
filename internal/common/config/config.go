package config

import (
	"os"
	"strconv"
	"time"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int

	// Детектор
	Inference    Inference
	WorkspaceTTL int

	// Gateway
	DetectorURL string
	OpenAPIPath string
}

// Inference: параметры внешнего сервиса детекции.
type Inference struct {
	APIKey     string
	URL        string
	Model      string
	Version    string
	Confidence int
	Timeout    int
}

// Load загружает конфигурацию из переменных окружения.
// defaultPort используется, если PORT не задан.
func Load(defaultPort string) *Config {
	return &Config{
		Port:         getEnv("PORT", defaultPort),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 30),
		BodyLimitMB:  getEnvAsInt("BODY_LIMIT_MB", 20),
		Inference: Inference{
			APIKey:     getEnv("ROBOFLOW_API_KEY", ""),
			URL:        getEnv("ROBOFLOW_URL", "https://detect.roboflow.com"),
			Model:      getEnv("ROBOFLOW_MODEL", "floorplans-r7e9l-vjwg9"),
			Version:    getEnv("ROBOFLOW_VERSION", "2"),
			Confidence: getEnvAsInt("ROBOFLOW_CONFIDENCE", 40),
			Timeout:    getEnvAsInt("INFERENCE_TIMEOUT", 60),
		},
		WorkspaceTTL: getEnvAsInt("WORKSPACE_TTL", 3600),
		DetectorURL:  getEnv("DETECTOR_URL", "http://localhost:3003"),
		OpenAPIPath:  getEnv("OPENAPI_PATH", "docs/detector.openapi.yaml"),
	}
}

func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func (c *Config) WorkspaceIdle() time.Duration {
	return time.Duration(c.WorkspaceTTL) * time.Second
}

func (i Inference) Deadline() time.Duration {
	return time.Duration(i.Timeout) * time.Second
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
