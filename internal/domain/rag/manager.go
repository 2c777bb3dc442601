package rag

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// Manager orchestrates the index lifecycle: ingestion, catalog, deletion.
// Mutating operations on the same index_id are serialized; reads go straight
// to the store, whose operations are atomic.
type Manager struct {
	store    IndexStore
	parsers  *ParserRegistry
	chunker  *Chunker
	embedder Embedder
	cache    RetrievalCacheStore // optional
	cfg      Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates the lifecycle manager.
func NewManager(store IndexStore, embedder Embedder, cfg *Config) *Manager {
	c := cfg.normalized()
	return &Manager{
		store:    store,
		parsers:  NewParserRegistry(),
		chunker:  NewChunker(c.ChunkSize, c.ChunkOverlap),
		embedder: embedder,
		cfg:      c,
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetCache attaches the retrieval cache, invalidated on every mutation.
func (m *Manager) SetCache(c RetrievalCacheStore) {
	m.cache = c
}

// Store returns the underlying index store.
func (m *Manager) Store() IndexStore {
	return m.store
}

// Parsers returns the parser registry (for boundary-level format checks).
func (m *Manager) Parsers() *ParserRegistry {
	return m.parsers
}

// MaxFileBytes returns the upload size cap.
func (m *Manager) MaxFileBytes() int64 {
	return int64(m.cfg.MaxFileMB) << 20
}

// Create ingests a document: parse, chunk, embed, then atomically register
// the finished index. Cancelling ctx mid-build leaves no partial state since
// nothing is written until the final Put.
func (m *Manager) Create(ctx context.Context, documentPath string, r io.Reader, size int64) (*IndexConfig, error) {
	if size > m.MaxFileBytes() {
		return nil, NewErrorf(CodeFileTooLarge, "file exceeds the %d MB limit", m.cfg.MaxFileMB)
	}

	name := filepath.Base(documentPath)

	parser, err := m.parsers.Get(name)
	if err != nil {
		return nil, err
	}

	// one upload per derived name at a time, so two concurrent uploads of
	// the same file cannot both pass the duplicate check
	nameLock := m.lockFor("name:" + name)
	nameLock.Lock()
	defer nameLock.Unlock()

	exists, err := m.store.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, NewErrorf(CodeDuplicateDocument, "document %q is already ingested", name)
	}

	start := time.Now()

	// guard against under-reported sizes
	segments, err := parser.Parse(io.LimitReader(r, m.MaxFileBytes()+1), name)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	chunks := m.chunker.Chunk(segments)

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := m.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
		}
		for i := range chunks {
			chunks[i].Vector = vectors[i]
		}
	}

	cfg := &IndexConfig{
		IndexID:        uuid.New().String(),
		DocumentPath:   documentPath,
		CreatedAt:      time.Now(),
		EmbeddingModel: m.embedder.Model(),
		ChunkCount:     len(chunks),
	}

	if err := m.store.Put(ctx, cfg, chunks); err != nil {
		return nil, fmt.Errorf("register index: %w", err)
	}

	if m.cache != nil {
		m.cache.InvalidateAll(ctx)
	}

	applog.Info("[RAG] Document indexed",
		"index_id", cfg.IndexID,
		"document", name,
		"pages", segmentPages(segments),
		"chunks", len(chunks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return cfg, nil
}

// List returns the catalog in insertion order.
func (m *Manager) List(ctx context.Context) ([]*IndexConfig, error) {
	return m.store.List(ctx)
}

// Load resolves an index_id, failing with NOT_FOUND when absent.
func (m *Manager) Load(ctx context.Context, indexID string) (*IndexConfig, error) {
	cfg, err := m.store.Get(ctx, indexID)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if cfg == nil {
		return nil, NewErrorf(CodeNotFound, "index %q not found", indexID)
	}
	return cfg, nil
}

// Delete removes config and chunks together. Idempotent: deleting an absent
// id is a no-op success.
func (m *Manager) Delete(ctx context.Context, indexID string) error {
	lock := m.lockFor(indexID)
	lock.Lock()
	defer lock.Unlock()

	existed, err := m.store.Delete(ctx, indexID)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}

	if existed {
		if m.cache != nil {
			m.cache.InvalidateAll(ctx)
		}
		applog.Info("[RAG] Index deleted", "index_id", indexID)
	}

	return nil
}

// LockFor exposes the per-index mutex for components that mutate index
// state outside the manager (language memoization).
func (m *Manager) LockFor(indexID string) *sync.Mutex {
	return m.lockFor(indexID)
}

func (m *Manager) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func segmentPages(segments []PageSegment) int {
	pages := 0
	for _, s := range segments {
		if s.Page > pages {
			pages = s.Page
		}
	}
	return pages
}
