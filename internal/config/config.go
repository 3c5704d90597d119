package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
	Enabled    bool
}

type APIKeys struct {
	Jina         string
	GoogleGemini string
	TurnTopic    string // Durable-log topic for committed turns
}

type AIConfig struct {
	EmbeddingProvider string // "jina", "ollama" or "gemini"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string
}

type RagConfig struct {
	TopK             int
	SessionTTL       time.Duration
	EmbeddingTTL     time.Duration
	StreamBufferSize int
	QueryTimeout     time.Duration // 0 disables the deployment-level deadline
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
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Enabled:    getEnv("DB_ENABLED", "true") != "false",
		},
		Keys: APIKeys{
			Jina:         getEnv("JINA_API_KEY", ""),
			GoogleGemini: getEnv("GEMINI_API_KEY", ""),
			TurnTopic:    getEnv("CHAT_TURN_TOPIC_NAME", "CHAT_TURN_COMMITTED"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "jina"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "jina-embeddings-v2-base-en"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-pro"),
		},
		Rag: RagConfig{
			TopK:             getEnvAsInt("TOP_K_RESULTS", 5),
			SessionTTL:       time.Duration(getEnvAsInt("SESSION_TTL", 3600)) * time.Second,
			EmbeddingTTL:     time.Duration(getEnvAsInt("EMBEDDING_CACHE_TTL", 86400)) * time.Second,
			StreamBufferSize: getEnvAsInt("STREAM_BUFFER_SIZE", 64),
			QueryTimeout:     time.Duration(getEnvAsInt("QUERY_TIMEOUT", 0)) * time.Second,
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
