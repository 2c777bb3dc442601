package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bryantchakote/rag-app-avct/internal/provider"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// ChatEngine answers questions grounded in the chunks retrieved from a
// caller-selected set of indices plus the conversation history.
type ChatEngine struct {
	store        IndexStore
	embedder     Embedder
	cache        RetrievalCacheStore // optional
	providerName string
	model        string
	topK         int
	maxContext   int
}

// NewChatEngine creates the chat engine.
func NewChatEngine(manager *Manager, embedder Embedder, providerName, model string, cfg *Config) *ChatEngine {
	c := cfg.normalized()
	return &ChatEngine{
		store:        manager.Store(),
		embedder:     embedder,
		providerName: providerName,
		model:        model,
		topK:         c.TopKPerIndex,
		maxContext:   c.MaxContextChunks,
	}
}

// SetCache attaches the retrieval cache.
func (e *ChatEngine) SetCache(c RetrievalCacheStore) {
	e.cache = c
}

// CompleteChat retrieves grounding chunks across the scope, then streams the
// model answer. The returned stream is finite and non-restartable; the
// sources are the chunks actually placed in the prompt. A provider failure
// before the first token surfaces as GENERATION_FAILED with no stream.
func (e *ChatEngine) CompleteChat(ctx context.Context, query string, history []ChatMessage, scope SearchScope) (*ChatStream, []RetrievedSource, error) {
	sources, messages, err := e.prepare(ctx, query, history, scope)
	if err != nil {
		return nil, nil, err
	}

	p, err := provider.GetProvider(e.providerName)
	if err != nil {
		return nil, nil, NewError(CodeGenerationFailed, "chat provider unavailable", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	chunkCh, errCh := p.StreamComplete(streamCtx, &provider.CompletionRequest{
		Model:       e.model,
		Messages:    messages,
		Temperature: 0.2,
	})

	// wait for the first token so a model that is down fails the call
	// itself instead of delivering a broken stream
	for {
		select {
		case err, ok := <-errCh:
			if ok && err != nil {
				cancel()
				return nil, nil, NewError(CodeGenerationFailed, "generation failed", err)
			}
			// errCh closed without error: keep draining buffered tokens
			errCh = nil
			continue
		case chunk, ok := <-chunkCh:
			if !ok {
				cancel()
				return newDrainedStream(), sources, nil
			}
			if chunk.Delta == "" {
				continue
			}
			return &ChatStream{
				chunks:  chunkCh,
				errs:    errCh,
				cancel:  cancel,
				pending: chunk.Delta,
				hasPend: true,
			}, sources, nil
		case <-ctx.Done():
			cancel()
			return nil, nil, ctx.Err()
		}
	}
}

// CompleteChatSync non-streaming variant with identical grounding; returns
// the full answer text.
func (e *ChatEngine) CompleteChatSync(ctx context.Context, query string, history []ChatMessage, scope SearchScope) (string, []RetrievedSource, error) {
	sources, messages, err := e.prepare(ctx, query, history, scope)
	if err != nil {
		return "", nil, err
	}

	p, err := provider.GetProvider(e.providerName)
	if err != nil {
		return "", nil, NewError(CodeGenerationFailed, "chat provider unavailable", err)
	}

	resp, err := p.Complete(ctx, &provider.CompletionRequest{
		Model:       e.model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", nil, NewError(CodeGenerationFailed, "generation failed", err)
	}

	return resp.Content, sources, nil
}

// prepare validates the scope, runs retrieval and builds the prompt.
func (e *ChatEngine) prepare(ctx context.Context, query string, history []ChatMessage, scope SearchScope) ([]RetrievedSource, []provider.Message, error) {
	if len(scope) == 0 {
		return nil, nil, NewErrorf(CodeEmptyScope, "no index selected for retrieval")
	}

	configs, err := e.resolveScope(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	sources, err := e.retrieve(ctx, query, configs)
	if err != nil {
		return nil, nil, err
	}

	// zero hits across all indices is not an error: degrade gracefully to
	// history-only generation
	if len(sources) == 0 {
		applog.Info("[Chat] No context found, answering from history only", "query_runes", len([]rune(query)))
	}

	messages := buildChatMessages(query, history, sources)
	return sources, messages, nil
}

// resolveScope maps the scope to configs in catalog insertion order and
// verifies a shared embedding space.
func (e *ChatEngine) resolveScope(ctx context.Context, scope SearchScope) ([]*IndexConfig, error) {
	catalog, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}

	wanted := make(map[string]bool, len(scope))
	for _, id := range scope {
		wanted[id] = true
	}

	// catalog order is insertion order, which fixes the tie-break ordering
	var configs []*IndexConfig
	for _, cfg := range catalog {
		if wanted[cfg.IndexID] {
			configs = append(configs, cfg)
			delete(wanted, cfg.IndexID)
		}
	}
	if len(wanted) > 0 {
		for id := range wanted {
			return nil, NewErrorf(CodeNotFound, "index %q not found", id)
		}
	}

	for _, cfg := range configs {
		if cfg.EmbeddingModel != e.embedder.Model() {
			return nil, NewErrorf(CodeIncompatibleIndices,
				"index %q was built with embedding model %q, engine uses %q",
				cfg.IndexID, cfg.EmbeddingModel, e.embedder.Model())
		}
	}

	return configs, nil
}

// retrieve embeds the query once, takes top-K per index by cosine
// similarity and merges into one ranked list with deterministic tie-breaks.
func (e *ChatEngine) retrieve(ctx context.Context, query string, configs []*IndexConfig) ([]RetrievedSource, error) {
	key := e.cacheKey(query, configs)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	start := time.Now()

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := vectors[0]

	type candidate struct {
		source     RetrievedSource
		indexOrder int
	}
	var merged []candidate

	for order, cfg := range configs {
		chunks, err := e.store.Chunks(ctx, cfg.IndexID)
		if err != nil {
			return nil, fmt.Errorf("load chunks for %s: %w", cfg.IndexID, err)
		}

		local := make([]candidate, 0, len(chunks))
		for _, c := range chunks {
			local = append(local, candidate{
				source: RetrievedSource{
					IndexID:      cfg.IndexID,
					DocumentName: cfg.DocumentName(),
					Page:         c.Page,
					ChunkOffset:  c.Offset,
					Text:         c.Text,
					Score:        cosineSimilarity(queryVec, c.Vector),
				},
				indexOrder: order,
			})
		}

		sort.SliceStable(local, func(i, j int) bool {
			if local[i].source.Score != local[j].source.Score {
				return local[i].source.Score > local[j].source.Score
			}
			return local[i].source.ChunkOffset < local[j].source.ChunkOffset
		})
		if len(local) > e.topK {
			local = local[:e.topK]
		}
		merged = append(merged, local...)
	}

	// global ranking: score desc, ties by index insertion order then chunk order
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].source.Score != merged[j].source.Score {
			return merged[i].source.Score > merged[j].source.Score
		}
		if merged[i].indexOrder != merged[j].indexOrder {
			return merged[i].indexOrder < merged[j].indexOrder
		}
		return merged[i].source.ChunkOffset < merged[j].source.ChunkOffset
	})
	if len(merged) > e.maxContext {
		merged = merged[:e.maxContext]
	}

	sources := make([]RetrievedSource, len(merged))
	for i, c := range merged {
		sources[i] = c.source
	}

	applog.Debug("[Chat] Retrieval merged",
		"indices", len(configs),
		"sources", len(sources),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if e.cache != nil {
		e.cache.Set(ctx, key, sources)
	}

	return sources, nil
}

func (e *ChatEngine) cacheKey(query string, configs []*IndexConfig) string {
	ids := make([]string, len(configs))
	for i, cfg := range configs {
		ids[i] = cfg.IndexID
	}
	sort.Strings(ids)
	raw := fmt.Sprintf("%s|%s|%s", query, strings.Join(ids, ","), e.embedder.Model())
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash[:12])
}

const chatSystemPrompt = `Tu es un assistant documentaire. Réponds à la question de l'utilisateur en t'appuyant exclusivement sur les extraits de documents fournis et sur l'historique de la conversation. Si les extraits ne contiennent pas la réponse, dis-le clairement. Cite les documents par leur numéro d'extrait.`

// buildChatMessages assembles the grounded prompt: system + numbered
// context, the full history, then the new query.
func buildChatMessages(query string, history []ChatMessage, sources []RetrievedSource) []provider.Message {
	var sb strings.Builder
	sb.WriteString(chatSystemPrompt)
	if len(sources) > 0 {
		sb.WriteString("\n\nExtraits :\n\n")
		for i, src := range sources {
			sb.WriteString(fmt.Sprintf("[%d] %s", i+1, src.DocumentName))
			if src.Page > 0 {
				sb.WriteString(fmt.Sprintf(" (page %d)", src.Page))
			}
			sb.WriteString("\n")
			sb.WriteString(src.Text)
			sb.WriteString("\n\n")
		}
	}

	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{Role: "system", Content: strings.TrimSpace(sb.String())})
	for _, msg := range history {
		messages = append(messages, provider.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, provider.Message{Role: RoleUser, Content: query})
	return messages
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ── ChatStream ───────────────────────────────────────────────

// ChatStream pull-based, finite token stream. Consumed once; Close releases
// the underlying model connection.
type ChatStream struct {
	chunks  <-chan provider.CompletionChunk
	errs    <-chan error
	cancel  context.CancelFunc
	pending string
	hasPend bool
	done    bool
}

func newDrainedStream() *ChatStream {
	return &ChatStream{done: true}
}

// Recv returns the next token batch, io.EOF once the stream is exhausted,
// or GENERATION_FAILED on a mid-stream provider error.
func (s *ChatStream) Recv(ctx context.Context) (string, error) {
	if s.hasPend {
		s.hasPend = false
		return s.pending, nil
	}
	if s.done {
		return "", io.EOF
	}

	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				s.finish()
				return "", io.EOF
			}
			if chunk.Delta == "" {
				continue
			}
			return chunk.Delta, nil
		case err, ok := <-s.errs:
			if ok && err != nil {
				s.finish()
				return "", NewError(CodeGenerationFailed, "stream failed", err)
			}
			if !ok {
				s.errs = nil
				continue
			}
		case <-ctx.Done():
			s.finish()
			return "", ctx.Err()
		}
	}
}

// Close cancels the stream and releases held resources. Safe to call twice.
func (s *ChatStream) Close() {
	s.finish()
}

func (s *ChatStream) finish() {
	s.done = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
