package config

import (
	"io"
	"log"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxIdleTime int // in minutes
	DBConnMaxLifetime int // in minutes

	// LLM provider. The relay credential, when present, takes precedence
	// over the direct OpenAI credential.
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	LLMRelayAPIKey  string
	LLMRelayBaseURL string

	// Models, overridable via the YAML config file.
	SupervisorModel string `yaml:"supervisor_model"`
	AgentModel      string `yaml:"agent_model"`

	// Loop ceilings. Both bound a single chat turn.
	MaxAgentSteps     int
	MaxSupervisorHops int

	// Conversation
	ConversationHistoryLimit int
	DefaultTZOffsetMinutes   int

	// Reminder dispatcher
	ReminderDispatchSpec string // cron spec

	// CORS
	CORSAllowedOrigins string

	// Logging
	LogLevel  string
	LogFormat string
}

var AppConfig *Config

func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		// Database
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", "postgres://localhost/daybook?sslmode=disable"),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 15),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxIdleTime: getEnvAsInt("DB_CONN_MAX_IDLE_TIME_MINUTES", 1),
		DBConnMaxLifetime: getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 30),

		// LLM
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMRelayAPIKey:  getEnvOrDefault("LLM_RELAY_API_KEY", ""),
		LLMRelayBaseURL: getEnvOrDefault("LLM_RELAY_BASE_URL", ""),

		SupervisorModel: getEnvOrDefault("SUPERVISOR_MODEL", "gpt-4o-mini"),
		AgentModel:      getEnvOrDefault("AGENT_MODEL", "gpt-4o-mini"),

		MaxAgentSteps:     getEnvAsInt("MAX_AGENT_STEPS", 8),
		MaxSupervisorHops: getEnvAsInt("MAX_SUPERVISOR_HOPS", 6),

		ConversationHistoryLimit: getEnvAsInt("CONVERSATION_HISTORY_LIMIT", 20),
		DefaultTZOffsetMinutes:   getEnvAsInt("DEFAULT_TZ_OFFSET_MINUTES", -480),

		ReminderDispatchSpec: getEnvOrDefault("REMINDER_DISPATCH_SPEC", "@every 1m"),

		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "debug"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	// Optional YAML file for model routing overrides.
	configFilePath := getEnvOrDefault("CONFIG_FILE", "")
	if configFilePath != "" {
		configFile, err := os.Open(configFilePath)
		if err != nil {
			log.Fatalf("Failed to open config file: %v", err)
		}
		defer configFile.Close()

		if err := LoadConfigFile(configFile, AppConfig); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}

	if AppConfig.LLMRelayAPIKey == "" && AppConfig.OpenAIAPIKey == "" {
		log.Println("Warning: no LLM credential configured. Set LLM_RELAY_API_KEY or OPENAI_API_KEY.")
	}
}

// LLMCredentials returns the base URL and API key to use, preferring the
// relay credential when present.
func (c *Config) LLMCredentials() (baseURL, apiKey string) {
	if c.LLMRelayAPIKey != "" && c.LLMRelayBaseURL != "" {
		return c.LLMRelayBaseURL, c.LLMRelayAPIKey
	}
	return c.OpenAIBaseURL, c.OpenAIAPIKey
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func LoadConfigFile(reader io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(config); err != nil {
		return err
	}

	return nil
}
