package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected default port %d", cfg.Server.Port)
	}
	if cfg.OpenAI.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected default base URL %q", cfg.OpenAI.BaseURL)
	}
	if cfg.RAG.ChunkSize != 512 || cfg.RAG.ChunkOverlap != 128 {
		t.Fatalf("unexpected chunker defaults: %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.MaxFileMB != 200 {
		t.Fatalf("unexpected upload cap %d", cfg.RAG.MaxFileMB)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RAG_CHUNK_SIZE", "256")
	t.Setenv("CHAT_LLM_MODEL", "gpt-4o")

	cfg := Default()
	cfg.applyEnv()

	if cfg.Server.Port != 9090 {
		t.Fatalf("PORT override not applied: %d", cfg.Server.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LOG_LEVEL override not applied: %q", cfg.LogLevel)
	}
	if cfg.RAG.ChunkSize != 256 {
		t.Fatalf("RAG_CHUNK_SIZE override not applied: %d", cfg.RAG.ChunkSize)
	}
	if cfg.Chat.Model != "gpt-4o" {
		t.Fatalf("CHAT_LLM_MODEL override not applied: %q", cfg.Chat.Model)
	}
}

func TestNormalizeFallsBackToChatModel(t *testing.T) {
	cfg := Default()
	cfg.Chat.Model = "gpt-4o"
	cfg.Summary.Model = ""
	cfg.Translation.Model = ""
	cfg.normalize()

	if cfg.Summary.Model != "gpt-4o" {
		t.Fatalf("summary model fallback failed: %q", cfg.Summary.Model)
	}
	if cfg.Translation.Model != "gpt-4o" {
		t.Fatalf("translation model fallback failed: %q", cfg.Translation.Model)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = ""
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected validation error without OPENAI_API_KEY")
	}

	cfg.OpenAI.APIKey = "sk-test"
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
