package rag

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bryantchakote/rag-app-avct/internal/provider"
)

// stubStore minimal in-memory IndexStore for engine tests.
type stubStore struct {
	mu      sync.Mutex
	order   []string
	configs map[string]*IndexConfig
	chunks  map[string][]Chunk
}

func newStubStore() *stubStore {
	return &stubStore{
		configs: make(map[string]*IndexConfig),
		chunks:  make(map[string][]Chunk),
	}
}

func (s *stubStore) Put(ctx context.Context, cfg *IndexConfig, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[cfg.IndexID]; ok {
		return fmt.Errorf("index %q already exists", cfg.IndexID)
	}
	cp := *cfg
	s.configs[cfg.IndexID] = &cp
	s.chunks[cfg.IndexID] = append([]Chunk(nil), chunks...)
	s.order = append(s.order, cfg.IndexID)
	return nil
}

func (s *stubStore) Get(ctx context.Context, indexID string) (*IndexConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[indexID]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (s *stubStore) List(ctx context.Context) ([]*IndexConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*IndexConfig, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.configs[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) Delete(ctx context.Context, indexID string) (bool, error) {
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

func (s *stubStore) Chunks(ctx context.Context, indexID string) ([]Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Chunk(nil), s.chunks[indexID]...), nil
}

func (s *stubStore) SetLanguage(ctx context.Context, indexID, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[indexID]
	if !ok {
		return fmt.Errorf("index %q not found", indexID)
	}
	cfg.Language = language
	return nil
}

func (s *stubStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cfg := range s.configs {
		if cfg.DocumentName() == name {
			return true, nil
		}
	}
	return false, nil
}

// seed registers a prebuilt index directly in the store.
func (s *stubStore) seed(id, path, model, lang string, chunks []Chunk) *IndexConfig {
	cfg := &IndexConfig{
		IndexID:        id,
		DocumentPath:   path,
		Language:       lang,
		EmbeddingModel: model,
		ChunkCount:     len(chunks),
	}
	if err := s.Put(context.Background(), cfg, chunks); err != nil {
		panic(err)
	}
	return cfg
}

// stubEmbedder deterministic embedder. Texts map to fixed vectors; unknown
// texts get the fallback vector.
type stubEmbedder struct {
	model    string
	vectors  map[string][]float32
	fallback []float32
	calls    int
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{
		model:    "stub-embed",
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0},
	}
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = e.fallback
		}
	}
	return out, nil
}

func (e *stubEmbedder) Dims() int     { return len(e.fallback) }
func (e *stubEmbedder) Model() string { return e.model }

// stubParser fixed-output parser registered for .txt in tests.
type stubParser struct {
	segments []PageSegment
	err      error
}

func (p *stubParser) SupportedTypes() []string { return []string{".txt"} }

func (p *stubParser) Parse(r io.Reader, filename string) ([]PageSegment, error) {
	io.Copy(io.Discard, r)
	return p.segments, p.err
}

// stubProvider scripted LLM provider. Records every request; Complete returns
// the scripted content, StreamComplete plays back the scripted chunks.
type stubProvider struct {
	name    string
	content string

	chunks      []provider.CompletionChunk
	streamErr   error
	completeErr error

	mu       sync.Mutex
	requests []*provider.CompletionRequest
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	p.record(req)
	if p.completeErr != nil {
		return nil, p.completeErr
	}
	return &provider.CompletionResponse{Content: p.content, FinishReason: "stop"}, nil
}

func (p *stubProvider) StreamComplete(ctx context.Context, req *provider.CompletionRequest) (<-chan provider.CompletionChunk, <-chan error) {
	p.record(req)
	chunkCh := make(chan provider.CompletionChunk, len(p.chunks)+1)
	errCh := make(chan error, 1)
	go func() {
		defer close(chunkCh)
		defer close(errCh)
		if p.streamErr != nil {
			errCh <- p.streamErr
			return
		}
		for _, c := range p.chunks {
			select {
			case chunkCh <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return chunkCh, errCh
}

func (p *stubProvider) record(req *provider.CompletionRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
}

func (p *stubProvider) lastRequest() *provider.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

func (p *stubProvider) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// stubTranslator records its input and returns a marked translation.
type stubTranslator struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (t *stubTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	t.mu.Lock()
	t.inputs = append(t.inputs, text)
	t.mu.Unlock()
	if t.err != nil {
		return "", t.err
	}
	return "[fr] " + text, nil
}

// stubDetector fixed-result language detector counting invocations.
type stubDetector struct {
	code  string
	ok    bool
	calls int
}

func (d *stubDetector) DetectLanguage(text string) (string, bool) {
	d.calls++
	return d.code, d.ok
}
