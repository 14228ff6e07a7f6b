package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is loaded once at process
// start and handed to components as explicit sub-structs; core logic never
// reads ambient environment state.
type Config struct {
	Database   DatabaseConfig
	Storage    StorageConfig
	Events     EventsConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
}

// DatabaseConfig holds result-store (Postgres) configuration.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// StorageConfig holds raw-object storage configuration.
type StorageConfig struct {
	Bucket          string
	CredentialsJSON string // explicit JSON credentials; ADC when empty
}

// EventsConfig holds the file-landed trigger subscription.
type EventsConfig struct {
	ProjectID       string
	SubscriptionID  string
	CredentialsJSON string
}

// ServerConfig holds the HTTP trigger surface configuration.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// ExtractionConfig holds orchestrator timing and fallback behavior.
type ExtractionConfig struct {
	WallClock       time.Duration // hard budget for one whole invocation
	ProviderTimeout time.Duration // budget per provider attempt
	DisableFallback bool          // primary provider only when true
	QueueWorkers    int
	QueueSize       int
}

// GeminiConfig holds the primary (free tier) provider configuration.
type GeminiConfig struct {
	APIKey      string
	VisionModel string
	TextModel   string
	Temperature float32
}

// OpenAIConfig holds the paid fallback provider configuration.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
		},
		Events: EventsConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			SubscriptionID:  getEnv("PUBSUB_SUBSCRIPTION", "uploads-landed"),
			CredentialsJSON: getEnv("PUBSUB_CREDENTIALS_JSON", ""),
		},
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":8080"),
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Extraction: ExtractionConfig{
			WallClock:       getEnvAsDuration("EXTRACTION_TIMEOUT", 3*time.Minute),
			ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 45*time.Second),
			DisableFallback: getEnvAsBool("DISABLE_PROVIDER_FALLBACK", false),
			QueueWorkers:    getEnvAsInt("QUEUE_WORKERS", 4),
			QueueSize:       getEnvAsInt("QUEUE_SIZE", 256),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			VisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-1.5-flash"),
			TextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-1.5-flash"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
			TextModel:   getEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
	}
}

// Validate checks the loaded configuration for the worker daemon.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Storage.Bucket == "" {
		return NewAppError("CONFIG_ERROR", "GCS_BUCKET is required", ErrInvalidInput)
	}
	if c.Gemini.APIKey == "" && c.OpenAI.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "at least one LLM provider key is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
