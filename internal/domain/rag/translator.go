package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bryantchakote/rag-app-avct/internal/provider"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// Translator translates arbitrary text into a target language. Stateless.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// translateRetries bounded retry count for transient provider failures.
const translateRetries = 2

// LLMTranslator prompt-based translation through an LLM provider.
type LLMTranslator struct {
	providerName string
	model        string
}

// NewLLMTranslator creates the translator.
func NewLLMTranslator(providerName, model string) *LLMTranslator {
	return &LLMTranslator{providerName: providerName, model: model}
}

const translateSystemPrompt = `Tu es un traducteur professionnel. Traduis le texte fourni dans la langue cible indiquée, sans rien ajouter ni commenter. Restitue uniquement la traduction.`

// Translate translates text. Empty input is terminal; transport timeouts are
// retried a bounded number of times. Failures surface as TRANSLATION_FAILED.
func (t *LLMTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", NewErrorf(CodeTranslationFailed, "empty input text")
	}

	p, err := provider.GetProvider(t.providerName)
	if err != nil {
		return "", NewError(CodeTranslationFailed, "translation provider unavailable", err)
	}

	req := &provider.CompletionRequest{
		Model: t.model,
		Messages: []provider.Message{
			{Role: "system", Content: translateSystemPrompt},
			{Role: "user", Content: "Langue cible : " + targetLanguage + "\n\nTexte :\n" + text},
		},
		Temperature: 0,
	}

	var lastErr error
	for attempt := 0; attempt <= translateRetries; attempt++ {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return strings.TrimSpace(resp.Content), nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
		applog.Warn("[RAG/Translator] Retrying after transient failure",
			"attempt", attempt+1,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", NewError(CodeTranslationFailed, "translation cancelled", ctx.Err())
		case <-time.After(retryDelay):
		}
	}

	return "", NewError(CodeTranslationFailed, "translation failed", lastErr)
}

// isRetryable treats provider timeouts as transient; malformed-input and
// cancelled-context errors are terminal.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// retryDelay spacing between retries; kept short, providers rate-limit hard
// failures on their own.
const retryDelay = 500 * time.Millisecond
