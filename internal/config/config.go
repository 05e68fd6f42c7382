package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Interview InterviewConfig
	Backend   BackendConfig
	JWT       JWTConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EventLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type DatabaseConfig struct {
	Connection string
	Verbose    bool
}

type AIConfig struct {
	LLMProvider    string // "ollama", "huggingface" or "openai"
	LLMModel       string
	OllamaBaseURL  string
	HuggingFaceKey string
	OpenAIKey      string
	Timeout        time.Duration
	MaxAttempts    int
}

type InterviewConfig struct {
	ReaskLimit      int
	SufficientSlots int
	MaxSlots        int
	SessionTTL      time.Duration
}

type BackendConfig struct {
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ReadAttempts int
}

type JWTConfig struct {
	Secret string
}

type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Verbose:    getEnvAsBool("DB_VERBOSE", false),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "qwen2.5:7b-instruct"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceKey: getEnv("HUGGINGFACE_API_KEY", ""),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
			MaxAttempts:    getEnvAsInt("LLM_MAX_ATTEMPTS", 2),
		},
		Interview: InterviewConfig{
			ReaskLimit:      getEnvAsInt("INTERVIEW_REASK_LIMIT", 3),
			SufficientSlots: getEnvAsInt("INTERVIEW_SUFFICIENT_SLOTS", 4),
			MaxSlots:        getEnvAsInt("INTERVIEW_MAX_SLOTS", 6),
			SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Backend: BackendConfig{
			BaseURL:      getEnv("SPRING_BASE_URL", getEnv("API_SERVER_URL", "http://localhost:7777")),
			ReadTimeout:  getEnvAsDuration("BACKEND_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvAsDuration("BACKEND_WRITE_TIMEOUT", 10*time.Second),
			ReadAttempts: getEnvAsInt("BACKEND_READ_ATTEMPTS", 2),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-review-be"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("20s") or plain seconds ("20").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
