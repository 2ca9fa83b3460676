package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Providers ProviderConfig
	Assistant AssistantConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionStore       string // "memory" or "redis"
	SessionTTL         time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "ollama", "huggingface" or "none"
	LLMModel          string
	OllamaBaseURL     string
	HuggingFaceAPIKey string
	ComposerMode      string // "generative" or "template"
}

type ProviderConfig struct {
	OpenFDABaseURL     string
	OpenFDAAPIKey      string
	MedlinePlusBaseURL string
	RxNormBaseURL      string
	WebSearchURL       string
	Timeout            time.Duration
}

type AssistantConfig struct {
	// UnknownMedicalTier is the class given to medical-form products that
	// match no rule. Only "prescription" and "otc" are accepted.
	UnknownMedicalTier string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/assistant_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
			SessionTTL:         time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "none"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
			ComposerMode:      getEnv("COMPOSER_MODE", "generative"),
		},
		Providers: ProviderConfig{
			OpenFDABaseURL:     getEnv("OPENFDA_BASE_URL", "https://api.fda.gov"),
			OpenFDAAPIKey:      getEnv("OPENFDA_API_KEY", ""),
			MedlinePlusBaseURL: getEnv("MEDLINEPLUS_BASE_URL", "https://connect.medlineplus.gov"),
			RxNormBaseURL:      getEnv("RXNORM_BASE_URL", "https://rxnav.nlm.nih.gov/REST"),
			WebSearchURL:       getEnv("WEB_SEARCH_URL", "https://www.google.com/search"),
			Timeout:            time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 12)) * time.Second,
		},
		Assistant: AssistantConfig{
			UnknownMedicalTier: getEnv("ASSISTANT_UNKNOWN_MEDICAL_TIER", "prescription"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// Validate rejects settings the assistant must not start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Assistant.UnknownMedicalTier) {
	case "prescription", "otc":
	default:
		return fmt.Errorf("ASSISTANT_UNKNOWN_MEDICAL_TIER must be \"prescription\" or \"otc\", got %q", c.Assistant.UnknownMedicalTier)
	}
	switch c.App.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("SESSION_STORE must be \"memory\" or \"redis\", got %q", c.App.SessionStore)
	}
	switch c.Ai.ComposerMode {
	case "generative", "template":
	default:
		return fmt.Errorf("COMPOSER_MODE must be \"generative\" or \"template\", got %q", c.Ai.ComposerMode)
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	return nil
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
