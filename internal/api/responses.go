package api

import (
	"encoding/json"
	"net/http"

	"github.com/bryantchakote/rag-app-avct/internal/domain/rag"
)

// APIResponse uniform JSON envelope.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&APIResponse{
		Code:    status,
		Message: "ok",
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&APIResponse{
		Code:    status,
		Message: message,
	})
}

// writeEngineError maps engine error codes onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusForCode(rag.CodeOf(err)), err.Error())
}

func statusForCode(code rag.ErrorCode) int {
	switch code {
	case rag.CodeNotFound:
		return http.StatusNotFound
	case rag.CodeDuplicateDocument:
		return http.StatusConflict
	case rag.CodeUnsupportedFormat, rag.CodeEmptyScope:
		return http.StatusBadRequest
	case rag.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case rag.CodeEmptyDocument, rag.CodeIncompatibleIndices:
		return http.StatusUnprocessableEntity
	case rag.CodeTranslationFailed, rag.CodeSummarizationFailed, rag.CodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
