package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
)

// AppConfig global configuration. Loaded once at startup, then passed down
// per module.
type AppConfig struct {
	LogLevel    string            `json:"log_level"`
	LogFormat   string            `json:"log_format"`
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Redis       RedisConfig       `json:"redis"`
	OpenAI      OpenAIConfig      `json:"openai"`
	Chat        ChatConfig        `json:"chat"`
	Summary     SummaryConfig     `json:"summary"`
	Translation TranslationConfig `json:"translation"`
	RAG         rag.Config        `json:"rag"`
}

type ServerConfig struct {
	Host                string `json:"host"`
	Port                int    `json:"port"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
}

// DatabaseConfig PostgreSQL settings. URL empty means the in-memory store.
type DatabaseConfig struct {
	URL                    string `json:"url"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
}

// RedisConfig retrieval cache settings. URL empty disables the cache.
type RedisConfig struct {
	URL string `json:"url"`
}

type OpenAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type ChatConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type SummaryConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type TranslationConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Default returns the default configuration.
func Default() *AppConfig {
	ragCfg := rag.DefaultConfig()
	return &AppConfig{
		LogLevel:  "info",
		LogFormat: "text",
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 600,
		},
		Database: DatabaseConfig{
			MaxOpenConns:           25,
			MaxIdleConns:           5,
			ConnMaxLifetimeSeconds: 300,
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Chat: ChatConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Summary: SummaryConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Translation: TranslationConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		RAG: *ragCfg,
	}
}

// Load loads the global configuration: defaults -> config file -> environment.
// The config file path comes from APP_CONFIG_FILE (JSON).
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
	}

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read APP_CONFIG_FILE %q failed: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse APP_CONFIG_FILE %q failed: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	applyString("LOG_LEVEL", &c.LogLevel)
	applyString("LOG_FORMAT", &c.LogFormat)

	applyString("HOST", &c.Server.Host)
	applyInt("PORT", &c.Server.Port)
	applyInt("SERVER_READ_TIMEOUT", &c.Server.ReadTimeoutSeconds)
	applyInt("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeoutSeconds)

	applyString("DATABASE_URL", &c.Database.URL)
	applyInt("DATABASE_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	applyInt("DATABASE_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)
	applyInt("DATABASE_CONN_MAX_LIFETIME", &c.Database.ConnMaxLifetimeSeconds)

	applyString("REDIS_URL", &c.Redis.URL)

	applyString("OPENAI_API_KEY", &c.OpenAI.APIKey)
	applyString("OPENAI_BASE_URL", &c.OpenAI.BaseURL)

	applyString("CHAT_LLM_PROVIDER", &c.Chat.Provider)
	applyString("CHAT_LLM_MODEL", &c.Chat.Model)
	applyString("SUMMARY_LLM_PROVIDER", &c.Summary.Provider)
	applyString("SUMMARY_LLM_MODEL", &c.Summary.Model)
	applyString("TRANSLATION_LLM_PROVIDER", &c.Translation.Provider)
	applyString("TRANSLATION_LLM_MODEL", &c.Translation.Model)

	applyInt("RAG_CHUNK_SIZE", &c.RAG.ChunkSize)
	applyInt("RAG_CHUNK_OVERLAP", &c.RAG.ChunkOverlap)
	applyString("RAG_EMBEDDING_MODEL", &c.RAG.EmbeddingModel)
	applyInt("RAG_EMBEDDING_DIMS", &c.RAG.EmbeddingDims)
	applyInt("RAG_TOP_K_PER_INDEX", &c.RAG.TopKPerIndex)
	applyInt("RAG_MAX_CONTEXT_CHUNKS", &c.RAG.MaxContextChunks)
	applyInt("RAG_MAX_FILE_SIZE", &c.RAG.MaxFileMB)
	applyInt("RAG_LANGUAGE_SAMPLE_RUNES", &c.RAG.LanguageSampleRunes)
	applyInt("RAG_CACHE_TTL", &c.RAG.CacheTTL)
}

func (c *AppConfig) normalize() {
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.Summary.Provider == "" {
		c.Summary.Provider = c.Chat.Provider
	}
	if c.Summary.Model == "" {
		c.Summary.Model = c.Chat.Model
	}
	if c.Translation.Provider == "" {
		c.Translation.Provider = c.Summary.Provider
	}
	if c.Translation.Model == "" {
		c.Translation.Model = c.Summary.Model
	}
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be in (0, 65535], got %d", c.Server.Port)
	}
	return nil
}

func applyString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func applyInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
