package rag

import "context"

// IndexStore persists one IndexConfig record plus its chunk sequence per
// index_id. Implementations must keep Put/Delete atomic with respect to
// concurrent List/Get calls: a lister never observes a half-written index.
type IndexStore interface {
	// Put registers a fully built index. All-or-nothing; fails when the
	// index_id is already present.
	Put(ctx context.Context, cfg *IndexConfig, chunks []Chunk) error
	// Get returns the config for an index_id, nil when absent.
	Get(ctx context.Context, indexID string) (*IndexConfig, error)
	// List returns all configs in insertion order.
	List(ctx context.Context) ([]*IndexConfig, error)
	// Delete removes config and chunks together. Returns whether the index
	// existed; deleting an absent id is not an error.
	Delete(ctx context.Context, indexID string) (bool, error)
	// Chunks returns the index's chunks in document order.
	Chunks(ctx context.Context, indexID string) ([]Chunk, error)
	// SetLanguage memoizes the detected language on the config.
	SetLanguage(ctx context.Context, indexID, language string) error
	// ExistsByName reports whether a config with the derived document name exists.
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// RetrievalCacheStore caches merged retrieval results per query+scope key.
type RetrievalCacheStore interface {
	Get(ctx context.Context, key string) ([]RetrievedSource, bool)
	Set(ctx context.Context, key string, sources []RetrievedSource)
	// InvalidateAll drops every cached result. Called on ingest and delete,
	// when any cached ranking may be stale.
	InvalidateAll(ctx context.Context)
}
