package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Clova    ClovaConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Server   ServerConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
}

type ClovaConfig struct {
	SecretKey string
	InvokeURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type PipelineConfig struct {
	MaxRetries     int
	OCRConcurrency int
	LLMConcurrency int
	BatchWorkers   int
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Clova: ClovaConfig{
			SecretKey: getEnv("NAVER_OCR_SECRET_KEY", ""),
			InvokeURL: getEnv("NAVER_OCR_INVOKE_URL", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "namecard"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "namecard"),
		},
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8000),
			AllowedOrigins: parseCommaSeparated(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Pipeline: PipelineConfig{
			MaxRetries:     getEnvInt("EXTRACT_MAX_RETRIES", 3),
			OCRConcurrency: getEnvInt("OCR_CONCURRENCY", 4),
			LLMConcurrency: getEnvInt("LLM_CONCURRENCY", 2),
			BatchWorkers:   getEnvInt("BATCH_WORKERS", 4),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Clova.SecretKey == "" {
		return fmt.Errorf("NAVER_OCR_SECRET_KEY is required")
	}
	if c.Clova.InvokeURL == "" {
		return fmt.Errorf("NAVER_OCR_INVOKE_URL is required")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Pipeline.MaxRetries < 1 {
		return fmt.Errorf("EXTRACT_MAX_RETRIES must be at least 1")
	}
	if c.Pipeline.OCRConcurrency < 1 || c.Pipeline.LLMConcurrency < 1 {
		return fmt.Errorf("concurrency limits must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
