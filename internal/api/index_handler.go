package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// IndexHandler index lifecycle, language and summary API.
type IndexHandler struct {
	manager    *rag.Manager
	language   *rag.LanguageService
	summarizer *rag.Summarizer
}

// NewIndexHandler creates the handler.
func NewIndexHandler(manager *rag.Manager, language *rag.LanguageService, summarizer *rag.Summarizer) *IndexHandler {
	return &IndexHandler{
		manager:    manager,
		language:   language,
		summarizer: summarizer,
	}
}

// RegisterRoutes registers index routes.
func (h *IndexHandler) RegisterRoutes(r chi.Router) {
	r.Route("/indexes", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Load)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/language", h.Language)
		r.Post("/{id}/summary", h.Summarize)
	})
}

// Create ingests an uploaded document (multipart/form-data, field "file").
func (h *IndexHandler) Create(w http.ResponseWriter, r *http.Request) {
	limitBytes := h.manager.MaxFileBytes()

	if err := r.ParseMultipartForm(limitBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if header.Size > 0 && header.Size > limitBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size exceeds limit (%dMB)", limitBytes>>20))
		return
	}

	cfg, err := h.manager.Create(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		if rag.CodeOf(err) == "" {
			applog.Error("[API] Document ingestion failed", "filename", header.Filename, "error", err)
		}
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

// List returns the catalog in insertion order.
func (h *IndexHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.manager.List(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if configs == nil {
		configs = []*rag.IndexConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// Load returns one index config.
func (h *IndexHandler) Load(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Delete removes an index. Idempotent; deleting an absent id succeeds.
func (h *IndexHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Language returns the index's detected (memoized) language.
func (h *IndexHandler) Language(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lang, err := h.language.Detect(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"index_id": id, "language": lang})
}

// Summarize produces the French summary of an index.
func (h *IndexHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := h.summarizer.Summarize(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"index_id": id, "summary": summary})
}
