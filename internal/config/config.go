package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	MistralAPIKey     string
	MistralBaseURL    string
	MistralEmbedModel string
	MistralChatModel  string
	ChatTemperature   float64

	PineconeAPIKey     string
	PineconeControlURL string
	PineconeIndex      string
	PineconeNamespace  string
	PineconeCloud      string
	PineconeRegion     string

	EmbedDimension    int
	MetadataTextLimit int
	UpsertBatchSize   int
	IndexReadyTimeout time.Duration

	RAGTopK          int
	MaxContextChars  int
	SearchTopKMax    int
	StreamChunkChars int

	CorpusDir      string
	EmbeddingsPath string
	RulesPath      string

	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int

	CORSAllowedOrigins []string
}

// Load reads configuration from the environment, with a .env file
// applied first if present. Missing credentials are reported by
// Validate, not here, so offline tooling can still load a config.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		MistralAPIKey:     mustEnv("MISTRAL_API_KEY", ""),
		MistralBaseURL:    mustEnv("MISTRAL_BASE_URL", "https://api.mistral.ai"),
		MistralEmbedModel: mustEnv("MISTRAL_EMBED_MODEL", "mistral-embed"),
		MistralChatModel:  mustEnv("MISTRAL_CHAT_MODEL", "mistral-large-latest"),
		ChatTemperature:   mustEnvFloat("CHAT_TEMPERATURE", 0.3),

		PineconeAPIKey:     mustEnv("PINECONE_API_KEY", ""),
		PineconeControlURL: mustEnv("PINECONE_CONTROL_URL", "https://api.pinecone.io"),
		PineconeIndex:      mustEnv("PINECONE_INDEX", "credit-cards"),
		PineconeNamespace:  mustEnv("PINECONE_NAMESPACE", ""),
		PineconeCloud:      mustEnv("PINECONE_CLOUD", "aws"),
		PineconeRegion:     mustEnv("PINECONE_REGION", "us-east-1"),

		EmbedDimension:    mustEnvInt("EMBED_DIMENSION", 1024),
		MetadataTextLimit: mustEnvInt("METADATA_TEXT_LIMIT", 1000),
		UpsertBatchSize:   mustEnvInt("UPSERT_BATCH_SIZE", 100),
		IndexReadyTimeout: time.Duration(mustEnvInt("INDEX_READY_TIMEOUT_SECONDS", 120)) * time.Second,

		RAGTopK:          mustEnvInt("RAG_TOP_K", 3),
		MaxContextChars:  mustEnvInt("MAX_CONTEXT_CHARS", 3000),
		SearchTopKMax:    mustEnvInt("SEARCH_TOP_K_MAX", 20),
		StreamChunkChars: mustEnvInt("STREAM_CHUNK_CHARS", 120),

		CorpusDir:      mustEnv("CORPUS_DIR", "./data"),
		EmbeddingsPath: mustEnv("EMBEDDINGS_PATH", "./embeddings/credit_cards_embeddings.json"),
		RulesPath:      mustEnv("RULES_PATH", ""),

		RateLimitRPS:   mustEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: mustEnvInt("RATE_LIMIT_BURST", 20),
		MaxInFlight:    mustEnvInt("MAX_IN_FLIGHT_REQUESTS", 64),

		CORSAllowedOrigins: mustEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

// Validate checks the settings both binaries need before talking to
// external services.
func (c Config) Validate() error {
	if c.MistralAPIKey == "" {
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			errors.New("MISTRAL_API_KEY is required"))
	}
	if c.PineconeAPIKey == "" {
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			errors.New("PINECONE_API_KEY is required"))
	}
	if c.EmbedDimension <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			errors.New("EMBED_DIMENSION must be positive"))
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// mustEnvList splits a comma separated value, dropping blanks. An
// unset or empty variable yields nil, which callers treat as "allow
// any origin".
func mustEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
