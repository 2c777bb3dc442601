package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// ChatHandler retrieval-augmented chat API, streaming over SSE.
type ChatHandler struct {
	chat *rag.ChatEngine
}

// NewChatHandler creates the handler.
func NewChatHandler(chat *rag.ChatEngine) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
}

type chatRequest struct {
	Query   string            `json:"query"`
	History []rag.ChatMessage `json:"history,omitempty"`
	Scope   rag.SearchScope   `json:"scope"`
	// Stream false returns the full answer in one JSON response
	Stream *bool `json:"stream,omitempty"`
}

// Chat answers a query grounded in the chunks retrieved from the scoped
// indices. Streams tokens over SSE by default; `"stream": false` switches to
// a single JSON response.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	if req.Stream != nil && !*req.Stream {
		h.chatSync(w, r, &req)
		return
	}

	stream, sources, err := h.chat.CompleteChat(r.Context(), req.Query, req.History, req.Scope)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sseWriteEvent(w, flusher, "sources", sources)

	for {
		delta, err := stream.Recv(r.Context())
		if errors.Is(err, io.EOF) {
			sseWriteEvent(w, flusher, "done", map[string]string{"status": "completed"})
			return
		}
		if err != nil {
			applog.Error("[Chat] Stream failed", "error", err)
			sseWriteEvent(w, flusher, "error", map[string]string{"error": err.Error()})
			return
		}
		sseWriteEvent(w, flusher, "delta", map[string]string{"content": delta})
	}
}

func (h *ChatHandler) chatSync(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	answer, sources, err := h.chat.CompleteChatSync(r.Context(), req.Query, req.History, req.Scope)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":  answer,
		"sources": sources,
	})
}

func sseWriteEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, string(jsonData))
	flusher.Flush()
}
