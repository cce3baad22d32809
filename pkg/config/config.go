package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	RxNorm   RxNormConfig
	Parser   ParserConfig
	Pipeline PipelineConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OpenAIConfig holds configuration for the primary generation provider
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// GeminiConfig holds configuration for the fallback generation provider
type GeminiConfig struct {
	APIKey string
	Model  string
}

// RxNormConfig holds configuration for the drug lookup service
type RxNormConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ParserConfig holds configuration for the document parsing service
type ParserConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PipelineConfig holds tunables for the document analysis pipeline
type PipelineConfig struct {
	// MinTextLength is the minimum stored text length considered reusable
	// without re-parsing the source file.
	MinTextLength int
	// MaxPromptChars bounds the document prefix handed to the extraction
	// prompt so we stay inside model context limits.
	MaxPromptChars int
	// EnrichmentWorkers bounds concurrent drug lookups per pipeline run.
	EnrichmentWorkers int
	// MaxRecommendations caps the flattened recommendation list in the
	// assembled result.
	MaxRecommendations int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "healthmate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		RxNorm: RxNormConfig{
			BaseURL: getEnv("RXNORM_BASE_URL", "https://rxnav.nlm.nih.gov/REST"),
			Timeout: getEnvAsDuration("RXNORM_TIMEOUT", 10*time.Second),
		},
		Parser: ParserConfig{
			BaseURL: getEnv("PARSER_BASE_URL", ""),
			APIKey:  getEnv("PARSER_API_KEY", ""),
			Timeout: getEnvAsDuration("PARSER_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			MinTextLength:      getEnvAsInt("PIPELINE_MIN_TEXT_LENGTH", 50),
			MaxPromptChars:     getEnvAsInt("PIPELINE_MAX_PROMPT_CHARS", 8000),
			EnrichmentWorkers:  getEnvAsInt("PIPELINE_ENRICHMENT_WORKERS", 4),
			MaxRecommendations: getEnvAsInt("PIPELINE_MAX_RECOMMENDATIONS", 6),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "healthmate-backend"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
