package memdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
)

// Store in-memory IndexStore. The default backend when no DATABASE_URL is
// configured, and the backend used by tests. Put/Delete hold the write lock
// for their whole critical section, so List/Get snapshots are atomic.
type Store struct {
	mu      sync.RWMutex
	order   []string // index_ids in insertion order
	configs map[string]*rag.IndexConfig
	chunks  map[string][]rag.Chunk
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		configs: make(map[string]*rag.IndexConfig),
		chunks:  make(map[string][]rag.Chunk),
	}
}

func (s *Store) Put(ctx context.Context, cfg *rag.IndexConfig, chunks []rag.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[cfg.IndexID]; ok {
		return fmt.Errorf("index %q already exists", cfg.IndexID)
	}

	cp := *cfg
	s.configs[cfg.IndexID] = &cp
	s.chunks[cfg.IndexID] = append([]rag.Chunk(nil), chunks...)
	s.order = append(s.order, cfg.IndexID)
	return nil
}

func (s *Store) Get(ctx context.Context, indexID string) (*rag.IndexConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[indexID]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (s *Store) List(ctx context.Context) ([]*rag.IndexConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*rag.IndexConfig, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.configs[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, indexID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[indexID]; !ok {
		return false, nil
	}

	delete(s.configs, indexID)
	delete(s.chunks, indexID)
	for i, id := range s.order {
		if id == indexID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Store) Chunks(ctx context.Context, indexID string) ([]rag.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.chunks[indexID]
	if !ok {
		return nil, nil
	}
	return append([]rag.Chunk(nil), chunks...), nil
}

func (s *Store) SetLanguage(ctx context.Context, indexID, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[indexID]
	if !ok {
		return fmt.Errorf("index %q not found", indexID)
	}
	cfg.Language = language
	return nil
}

func (s *Store) ExistsByName(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cfg := range s.configs {
		if cfg.DocumentName() == name {
			return true, nil
		}
	}
	return false, nil
}
