package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Catalog  CatalogConfig
	Keys     APIKeys
	Ai       AIConfig
	Timeouts TimeoutConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	IngestTopic        string

	RateLimitMax    int
	RateLimitWindow time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type CatalogConfig struct {
	Backend          string // "postgres" or "qdrant"
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	VectorDimension  int

	Limit         int
	NumCandidates int

	// DegradeOnRetrievalError answers with an empty product block instead of
	// failing the turn when the index is unreachable.
	DegradeOnRetrievalError bool
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
	OpenRouter   string
	OpenAI       string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "gemini", "jina" or "openai"
	EmbeddingModel    string
	EmbeddingBaseURL  string
	OllamaBaseURL     string

	LLMProvider    string // "openrouter", "openai", "ollama", "huggingface"
	LLMModel       string
	LLMBaseURL     string
	LLMTemperature float64
}

type TimeoutConfig struct {
	Embed     time.Duration
	Retrieval time.Duration
	LLM       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			IngestTopic:        getEnv("INGEST_CATALOG_TOPIC_NAME", "INGEST_CATALOG_RECORD"),
			RateLimitMax:       getEnvAsInt("RATE_LIMIT_MAX", 20),
			RateLimitWindow:    getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Catalog: CatalogConfig{
			Backend:                 strings.ToLower(getEnv("CATALOG_BACKEND", "postgres")),
			QdrantHost:              getEnv("QDRANT_HOST", "localhost"),
			QdrantPort:              getEnvAsInt("QDRANT_PORT", 6334),
			QdrantCollection:        getEnv("QDRANT_COLLECTION", "catalog_records"),
			VectorDimension:         getEnvAsInt("VECTOR_DIMENSION", 768),
			Limit:                   getEnvAsInt("RETRIEVAL_LIMIT", 10),
			NumCandidates:           getEnvAsInt("RETRIEVAL_NUM_CANDIDATES", 320),
			DegradeOnRetrievalError: getEnvAsBool("DEGRADE_ON_RETRIEVAL_ERROR", false),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			OpenRouter:   getEnv("OPENROUTER_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", "ollama")),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "keepitreal/vietnamese-sbert"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
			LLMModel:          getEnv("LLM_MODEL", "tngtech/deepseek-r1t2-chimera:free"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMTemperature:    getEnvAsFloat("LLM_TEMPERATURE", 0),
		},
		Timeouts: TimeoutConfig{
			Embed:     getEnvAsDuration("EMBED_TIMEOUT", 15*time.Second),
			Retrieval: getEnvAsDuration("RETRIEVAL_TIMEOUT", 10*time.Second),
			LLM:       getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
	}
}

// LLMAPIKey picks the credential matching the configured LLM provider.
func (c *Config) LLMAPIKey() string {
	switch c.Ai.LLMProvider {
	case "openrouter":
		return c.Keys.OpenRouter
	case "openai":
		return c.Keys.OpenAI
	case "huggingface":
		return c.Keys.HuggingFace
	}
	return ""
}

// LLMBaseURL falls back to the Ollama URL for the ollama provider.
func (c *Config) LLMBaseURL() string {
	if c.Ai.LLMBaseURL != "" {
		return c.Ai.LLMBaseURL
	}
	if c.Ai.LLMProvider == "ollama" {
		return c.Ai.OllamaBaseURL
	}
	return ""
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
