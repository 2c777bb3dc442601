package rag

// Config engine configuration. Values are filled from the environment by
// the platform config layer; zero values fall back to defaults here.
type Config struct {
	// Chunker
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`

	// Embedding
	EmbeddingModel string `json:"embedding_model"`
	EmbeddingDims  int    `json:"embedding_dims"`

	// Retrieval
	TopKPerIndex     int `json:"top_k_per_index"`
	MaxContextChunks int `json:"max_context_chunks"` // global cap across indices

	// Ingestion
	MaxFileMB int `json:"max_file_size"` // upload cap in MB

	// Language detection sample (runes)
	LanguageSampleRunes int `json:"language_sample_runes"`

	// Retrieval cache TTL in seconds, 0 = disabled
	CacheTTL int `json:"cache_ttl"`
}

// DefaultConfig engine defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:           512,
		ChunkOverlap:        128,
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDims:       1536,
		TopKPerIndex:        4,
		MaxContextChunks:    8,
		MaxFileMB:           200,
		LanguageSampleRunes: 2000,
		CacheTTL:            0,
	}
}

func (c *Config) normalized() Config {
	cfg := *c
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 4
	}
	if cfg.TopKPerIndex <= 0 {
		cfg.TopKPerIndex = def.TopKPerIndex
	}
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = def.MaxContextChunks
	}
	if cfg.MaxFileMB <= 0 {
		cfg.MaxFileMB = def.MaxFileMB
	}
	if cfg.LanguageSampleRunes <= 0 {
		cfg.LanguageSampleRunes = def.LanguageSampleRunes
	}
	return cfg
}

// HasCache reports whether the retrieval cache is enabled.
func (c *Config) HasCache() bool {
	return c.CacheTTL > 0
}
