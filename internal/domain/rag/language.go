package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"

	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// LanguageDetector classifies the dominant language of a text sample.
type LanguageDetector interface {
	// DetectLanguage returns an ISO 639-1 code; ok is false when the
	// classification is inconclusive.
	DetectLanguage(text string) (code string, ok bool)
}

// LinguaDetector statistical detector backed by lingua-go.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector over all spoken languages.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllSpokenLanguages().
			Build(),
	}
}

func (d *LinguaDetector) DetectLanguage(text string) (string, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// LanguageService per-index language detection with memoization. Detection
// runs at most once per index; the result is written through to the config
// under the per-index lock.
type LanguageService struct {
	store       IndexStore
	manager     *Manager
	detector    LanguageDetector
	sampleRunes int
}

// NewLanguageService creates the service.
func NewLanguageService(manager *Manager, detector LanguageDetector, cfg *Config) *LanguageService {
	c := cfg.normalized()
	return &LanguageService{
		store:       manager.Store(),
		manager:     manager,
		detector:    detector,
		sampleRunes: c.LanguageSampleRunes,
	}
}

// Detect returns the memoized language of an index, computing it on first
// access from a bounded prefix of the document text.
func (s *LanguageService) Detect(ctx context.Context, indexID string) (string, error) {
	cfg, err := s.store.Get(ctx, indexID)
	if err != nil {
		return "", fmt.Errorf("load index: %w", err)
	}
	if cfg == nil {
		return "", NewErrorf(CodeNotFound, "index %q not found", indexID)
	}
	if cfg.Language != "" {
		return cfg.Language, nil
	}

	lock := s.manager.LockFor(indexID)
	lock.Lock()
	defer lock.Unlock()

	// another caller may have detected while we waited on the lock
	cfg, err = s.store.Get(ctx, indexID)
	if err != nil {
		return "", fmt.Errorf("load index: %w", err)
	}
	if cfg == nil {
		return "", NewErrorf(CodeNotFound, "index %q not found", indexID)
	}
	if cfg.Language != "" {
		return cfg.Language, nil
	}

	chunks, err := s.store.Chunks(ctx, indexID)
	if err != nil {
		return "", fmt.Errorf("load chunks: %w", err)
	}

	sample := sampleText(chunks, s.sampleRunes)
	if sample == "" {
		return "", NewErrorf(CodeEmptyDocument, "index %q has no text content", indexID)
	}

	code, ok := s.detector.DetectLanguage(sample)
	if !ok {
		// undetermined; memoized so detection is still run only once
		code = "und"
		applog.Warn("[RAG/Language] Detection inconclusive", "index_id", indexID)
	}

	if err := s.store.SetLanguage(ctx, indexID, code); err != nil {
		return "", fmt.Errorf("memoize language: %w", err)
	}

	applog.Info("[RAG/Language] Detected", "index_id", indexID, "language", code)
	return code, nil
}

// sampleText concatenates chunk text in document order up to maxRunes.
// A document shorter than the sample is used in its entirety.
func sampleText(chunks []Chunk, maxRunes int) string {
	var sb strings.Builder
	total := 0
	for _, c := range chunks {
		remaining := maxRunes - total
		if sb.Len() > 0 {
			// the separator counts against the budget too
			remaining--
		}
		if remaining <= 0 {
			break
		}
		runes := []rune(c.Text)
		if len(runes) > remaining {
			runes = runes[:remaining]
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
			total++
		}
		sb.WriteString(string(runes))
		total += len(runes)
	}
	return strings.TrimSpace(sb.String())
}
