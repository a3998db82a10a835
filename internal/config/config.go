// Package config loads configuration from the environment and sets up logging.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderGoogleAI Provider = "googleai"
	ProviderOpenAI   Provider = "openai"
	ProviderOllama   Provider = "ollama"
	ProviderBedrock  Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection (job + precedent store)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Generative model
	LLMProvider    Provider
	LLMModel       string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OllamaHost     string
	BedrockModelID string

	// Embeddings
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Retrieval
	PrecedentTopK int

	// Classifier keyword rules (optional YAML file)
	ClassifierRules string

	// HTTP server
	ListenAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "fosight"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "cases"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:    Provider(getEnv("FOSIGHT_LLM_PROVIDER", string(ProviderGoogleAI))),
		LLMModel:       getEnv("FOSIGHT_LLM_MODEL", "gemini-2.5-flash"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		BedrockModelID: getEnv("FOSIGHT_BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0"),

		EmbedProvider:  Provider(getEnv("FOSIGHT_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("FOSIGHT_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("FOSIGHT_EMBED_DIMENSION", 384),

		PrecedentTopK: getEnvInt("FOSIGHT_PRECEDENT_TOP_K", 5),

		ClassifierRules: os.Getenv("FOSIGHT_CLASSIFIER_RULES"),

		ListenAddr: getEnv("FOSIGHT_LISTEN_ADDR", ":8080"),

		LogFile:  getEnv("FOSIGHT_LOG_FILE", "/tmp/fosight.log"),
		LogLevel: parseLogLevel(getEnv("FOSIGHT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
