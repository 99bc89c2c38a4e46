package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"littlesteps-be/internal/apperror"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Policy   PolicyConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	Secret             string
	SessionTTLHours    int
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OllamaBaseURL     string
	RequestsPerSecond float64
}

type PolicyConfig struct {
	AdminEmails         string
	InactiveDaysRaw     string
	WeeklyTokenCapRaw   string
	CleanupRepository   string
	CleanupOIDCAudience string

	// Parsed by Validate.
	InactiveDays   int
	WeeklyTokenCap int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			Secret:             getEnv("AUTH_SECRET", ""),
			SessionTTLHours:    getEnvAsInt("SESSION_TTL_HOURS", 720),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/api/auth/google/callback"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "LittleSteps AI"),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			RequestsPerSecond: getEnvAsFloat("LLM_REQUESTS_PER_SECOND", 5),
		},
		Policy: PolicyConfig{
			AdminEmails:         getEnv("ADMIN_EMAILS", ""),
			InactiveDaysRaw:     getEnv("INACTIVE_DAYS", "90"),
			WeeklyTokenCapRaw:   getEnv("WEEKLY_TOKEN_CAP", ""),
			CleanupRepository:   getEnv("CLEANUP_REPOSITORY", ""),
			CleanupOIDCAudience: getEnv("CLEANUP_OIDC_AUDIENCE", "api://littlesteps-ai"),
		},
	}
}

// Validate parses the policy values and rejects missing required settings.
// It never substitutes a default for an invalid value.
func (c *Config) Validate() error {
	days, err := parsePositiveInt("INACTIVE_DAYS", c.Policy.InactiveDaysRaw)
	if err != nil {
		return err
	}
	c.Policy.InactiveDays = int(days)

	tokenCap, err := parsePositiveInt("WEEKLY_TOKEN_CAP", c.Policy.WeeklyTokenCapRaw)
	if err != nil {
		return err
	}
	c.Policy.WeeklyTokenCap = tokenCap

	if c.Auth.Secret == "" {
		return apperror.Config("AUTH_SECRET is required")
	}
	if c.Database.Connection == "" {
		return apperror.Config("DB_CONNECTION_STRING is required")
	}
	return nil
}

// ValidateCleanup checks the settings the cleanup job cannot run without.
func (c *Config) ValidateCleanup() error {
	if c.Policy.CleanupRepository == "" {
		return apperror.Config("CLEANUP_REPOSITORY is required")
	}
	return nil
}

func parsePositiveInt(key, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperror.Config(fmt.Sprintf("%s is required", key))
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperror.Config(fmt.Sprintf("%s must be a positive integer, got %q", key, raw))
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
