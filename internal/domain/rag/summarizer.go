package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bryantchakote/rag-app-avct/internal/provider"
	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// NoContentSummary fixed notice returned for indices with zero chunks.
const NoContentSummary = "Aucun contenu textuel n'a pu être extrait de ce document."

// summarizeRetries bounded retry count for transient provider failures.
const summarizeRetries = 2

// Summarizer produces French abstractive summaries. French documents are
// summarized whole; any other language gets its first page translated to
// French first, and only that translation is summarized. The asymmetry
// mirrors the reference behavior and is deliberate (see DESIGN.md).
type Summarizer struct {
	store        IndexStore
	language     *LanguageService
	translator   Translator
	providerName string
	model        string
}

// NewSummarizer creates the summarizer.
func NewSummarizer(manager *Manager, language *LanguageService, translator Translator, providerName, model string) *Summarizer {
	return &Summarizer{
		store:        manager.Store(),
		language:     language,
		translator:   translator,
		providerName: providerName,
		model:        model,
	}
}

// Summarize summarizes an index according to its detected language.
func (s *Summarizer) Summarize(ctx context.Context, indexID string) (string, error) {
	lang, err := s.language.Detect(ctx, indexID)
	if err != nil {
		if IsCode(err, CodeEmptyDocument) {
			return NoContentSummary, nil
		}
		return "", err
	}

	if lang == "fr" {
		return s.summarizeFullDocument(ctx, indexID)
	}
	return s.TranslateAndSummarizeFirstPageFr(ctx, indexID)
}

// summarizeFullDocument summarizes the concatenation of every chunk of the
// index, in document order.
func (s *Summarizer) summarizeFullDocument(ctx context.Context, indexID string) (string, error) {
	text, err := s.documentText(ctx, indexID, false)
	if err != nil {
		return "", err
	}
	if text == "" {
		return NoContentSummary, nil
	}
	return s.summarizeText(ctx, indexID, text)
}

// TranslateAndSummarizeFirstPageFr extracts the first page only, translates
// it to French, then summarizes the translation.
func (s *Summarizer) TranslateAndSummarizeFirstPageFr(ctx context.Context, indexID string) (string, error) {
	text, err := s.documentText(ctx, indexID, true)
	if err != nil {
		return "", err
	}
	if text == "" {
		return NoContentSummary, nil
	}

	translated, err := s.translator.Translate(ctx, text, "français")
	if err != nil {
		return "", NewError(CodeSummarizationFailed, "first-page translation failed", err)
	}

	return s.summarizeText(ctx, indexID, translated)
}

// documentText concatenates chunk text in document order; firstPageOnly
// restricts it to chunks from the document's first extracted page.
func (s *Summarizer) documentText(ctx context.Context, indexID string, firstPageOnly bool) (string, error) {
	cfg, err := s.store.Get(ctx, indexID)
	if err != nil {
		return "", fmt.Errorf("load index: %w", err)
	}
	if cfg == nil {
		return "", NewErrorf(CodeNotFound, "index %q not found", indexID)
	}

	chunks, err := s.store.Chunks(ctx, indexID)
	if err != nil {
		return "", fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return "", nil
	}

	firstPage := chunks[0].Page
	var sb strings.Builder
	for _, c := range chunks {
		if firstPageOnly && c.Page != firstPage {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(c.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

const summarySystemPrompt = `Tu es un assistant de synthèse documentaire. Rédige un résumé abstrait, fidèle et concis du texte fourni, en français.
Exigences :
1. Conserve les faits, chiffres et conclusions essentiels
2. N'invente aucune information absente du texte
3. Utilise un style neutre et des phrases complètes`

// summarizeText calls the LLM with bounded retries on transient failures.
func (s *Summarizer) summarizeText(ctx context.Context, indexID, text string) (string, error) {
	p, err := provider.GetProvider(s.providerName)
	if err != nil {
		return "", NewError(CodeSummarizationFailed, "summary provider unavailable", err)
	}

	start := time.Now()
	req := &provider.CompletionRequest{
		Model: s.model,
		Messages: []provider.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: "Texte à résumer :\n\n" + text},
		},
		Temperature: 0.3,
	}

	var lastErr error
	for attempt := 0; attempt <= summarizeRetries; attempt++ {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			summary := strings.TrimSpace(resp.Content)
			applog.Info("[RAG/Summary] Summary generated",
				"index_id", indexID,
				"input_runes", len([]rune(text)),
				"summary_runes", len([]rune(summary)),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return summary, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
		applog.Warn("[RAG/Summary] Retrying after transient failure",
			"index_id", indexID,
			"attempt", attempt+1,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", NewError(CodeSummarizationFailed, "summarization cancelled", ctx.Err())
		case <-time.After(retryDelay):
		}
	}

	return "", NewError(CodeSummarizationFailed, "summarization failed", lastErr)
}
