package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bryantchakote/rag-app-avct/internal/adapter/provider/llm/openai"
	"github.com/bryantchakote/rag-app-avct/internal/api"
	memdb "github.com/bryantchakote/rag-app-avct/internal/db/memory"
	"github.com/bryantchakote/rag-app-avct/internal/db/postgres"
	redisdb "github.com/bryantchakote/rag-app-avct/internal/db/redis"
	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
	"github.com/bryantchakote/rag-app-avct/internal/platform/config"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
	"github.com/bryantchakote/rag-app-avct/internal/provider"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config load failed: %v\n", err)
		os.Exit(1)
	}

	applog.Init(applog.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	store := initStore(cfg)

	provider.RegisterProvider(openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	}))

	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.RAG.EmbeddingModel,
		Dims:    cfg.RAG.EmbeddingDims,
	})
	applog.Infof("✅ Embedder initialized (model: %s, dims: %d)", embedder.Model(), embedder.Dims())

	manager := rag.NewManager(store, embedder, &cfg.RAG)

	language := rag.NewLanguageService(manager, rag.NewLinguaDetector(), &cfg.RAG)

	translator := rag.NewLLMTranslator(cfg.Translation.Provider, cfg.Translation.Model)
	summarizer := rag.NewSummarizer(manager, language, translator, cfg.Summary.Provider, cfg.Summary.Model)

	chat := rag.NewChatEngine(manager, embedder, cfg.Chat.Provider, cfg.Chat.Model, &cfg.RAG)

	if cache := initCache(cfg); cache != nil {
		manager.SetCache(cache)
		chat.SetCache(cache)
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	serverConfig.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	server := api.NewServer(serverConfig, manager, language, summarizer, chat)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		applog.Info("🔄 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			applog.Errorf("❌ Server shutdown error: %v", err)
		}
	}()

	if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
		applog.Fatalf("❌ Server error: %v", err)
	}

	applog.Info("👋 Server stopped")
}

// initStore picks the index store: PostgreSQL when DATABASE_URL is set,
// otherwise in-memory.
func initStore(cfg *config.AppConfig) rag.IndexStore {
	if cfg.Database.URL == "" {
		applog.Info("ℹ️  No DATABASE_URL set, using in-memory index store")
		return memdb.NewStore()
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		applog.Fatalf("❌ Failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeSeconds) * time.Second)

	if err := db.Ping(); err != nil {
		applog.Fatalf("❌ Failed to ping database: %v", err)
	}
	applog.Info("✅ Connected to PostgreSQL")

	pgStore := postgres.NewStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pgStore.EnsureTables(ctx); err != nil {
		applog.Fatalf("❌ Failed to ensure index tables: %v", err)
	}
	applog.Info("✅ Index tables ready (rag_indexes, rag_chunks)")

	return pgStore
}

// initCache builds the Redis retrieval cache; nil when disabled or
// unreachable.
func initCache(cfg *config.AppConfig) rag.RetrievalCacheStore {
	if cfg.Redis.URL == "" || !cfg.RAG.HasCache() {
		return nil
	}

	opt, err := goredis.ParseURL(cfg.Redis.URL)
	if err != nil {
		applog.Warnf("⚠️  Redis URL invalid, retrieval cache disabled: %v", err)
		return nil
	}

	client := goredis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		applog.Warnf("⚠️  Redis ping failed, retrieval cache disabled: %v", err)
		return nil
	}

	applog.Infof("✅ Retrieval cache initialized (TTL: %ds)", cfg.RAG.CacheTTL)
	return redisdb.NewRetrievalCache(client, time.Duration(cfg.RAG.CacheTTL)*time.Second)
}
