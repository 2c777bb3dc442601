package redisdb

import (
	"context"
	"encoding/json"
	"time"

	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"

	"github.com/redis/go-redis/v9"
)

// RetrievalCache Redis cache for merged retrieval results. Keys are produced
// by the chat engine (query + scope + model hash); the cache only stores and
// invalidates. Failures degrade to a miss, never to an error.
type RetrievalCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRetrievalCache creates a retrieval cache. ttl <= 0 falls back to 5 minutes.
func NewRetrievalCache(rdb *redis.Client, ttl time.Duration) *RetrievalCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RetrievalCache{
		redis:  rdb,
		ttl:    ttl,
		prefix: "rag:retrieval:",
	}
}

func (c *RetrievalCache) Get(ctx context.Context, key string) ([]rag.RetrievedSource, bool) {
	data, err := c.redis.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var sources []rag.RetrievedSource
	if err := json.Unmarshal(data, &sources); err != nil {
		applog.Warn("[RAG/Cache] Failed to unmarshal cached result", "error", err)
		return nil, false
	}

	applog.Debug("[RAG/Cache] Hit", "key", key)
	return sources, true
}

func (c *RetrievalCache) Set(ctx context.Context, key string, sources []rag.RetrievedSource) {
	data, err := json.Marshal(sources)
	if err != nil {
		return
	}

	if err := c.redis.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		applog.Warn("[RAG/Cache] Failed to set cache", "key", key, "error", err)
	}
}

// InvalidateAll drops every cached result. Called when an index is created or
// deleted, since any cached ranking may involve the changed scope.
func (c *RetrievalCache) InvalidateAll(ctx context.Context) {
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.redis.Del(ctx, keys...)
		applog.Info("[RAG/Cache] All cache invalidated", "keys_deleted", len(keys))
	}
}
