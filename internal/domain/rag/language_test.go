package rag

import (
	"context"
	"strings"
	"testing"
)

func newTestLanguageService(detector LanguageDetector) (*LanguageService, *stubStore) {
	store := newStubStore()
	m := NewManager(store, newStubEmbedder(), DefaultConfig())
	return NewLanguageService(m, detector, DefaultConfig()), store
}

func TestDetectMemoized(t *testing.T) {
	ctx := context.Background()
	det := &stubDetector{code: "fr", ok: true}
	svc, store := newTestLanguageService(det)

	store.seed("idx-1", "doc.pdf", "stub-embed", "", []Chunk{
		{Text: "Bonjour, ceci est un document en français.", Page: 1, Offset: 0},
	})

	lang, err := svc.Detect(ctx, "idx-1")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if lang != "fr" {
		t.Fatalf("expected fr, got %q", lang)
	}

	for i := 0; i < 3; i++ {
		if lang, err = svc.Detect(ctx, "idx-1"); err != nil || lang != "fr" {
			t.Fatalf("repeat Detect: lang=%q err=%v", lang, err)
		}
	}
	if det.calls != 1 {
		t.Fatalf("detector invoked %d times, want 1", det.calls)
	}

	cfg, _ := store.Get(ctx, "idx-1")
	if cfg.Language != "fr" {
		t.Fatalf("language not memoized on config: %q", cfg.Language)
	}
}

func TestDetectNotFound(t *testing.T) {
	svc, _ := newTestLanguageService(&stubDetector{code: "fr", ok: true})

	_, err := svc.Detect(context.Background(), "missing")
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDetectEmptyDocument(t *testing.T) {
	svc, store := newTestLanguageService(&stubDetector{code: "fr", ok: true})
	store.seed("idx-empty", "scan.pdf", "stub-embed", "", nil)

	_, err := svc.Detect(context.Background(), "idx-empty")
	if !IsCode(err, CodeEmptyDocument) {
		t.Fatalf("expected EMPTY_DOCUMENT, got %v", err)
	}
}

func TestDetectInconclusiveMemoizesUnd(t *testing.T) {
	ctx := context.Background()
	det := &stubDetector{ok: false}
	svc, store := newTestLanguageService(det)
	store.seed("idx-und", "doc.pdf", "stub-embed", "", []Chunk{
		{Text: "12345 67890", Page: 1, Offset: 0},
	})

	lang, err := svc.Detect(ctx, "idx-und")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if lang != "und" {
		t.Fatalf("expected und, got %q", lang)
	}

	if _, err := svc.Detect(ctx, "idx-und"); err != nil {
		t.Fatalf("repeat Detect failed: %v", err)
	}
	if det.calls != 1 {
		t.Fatalf("detector invoked %d times, want 1", det.calls)
	}
}

func TestSampleText(t *testing.T) {
	chunks := []Chunk{
		{Text: strings.Repeat("a", 30)},
		{Text: strings.Repeat("b", 30)},
		{Text: strings.Repeat("c", 30)},
	}

	sample := sampleText(chunks, 50)
	if n := len([]rune(sample)); n > 50 {
		t.Fatalf("sample has %d runes, cap is 50", n)
	}
	if !strings.HasPrefix(sample, strings.Repeat("a", 30)) {
		t.Fatalf("sample does not start with first chunk: %q", sample)
	}

	// separator between chunks is budgeted: 30 a's + newline + 19 b's
	want := strings.Repeat("a", 30) + "\n" + strings.Repeat("b", 19)
	if sample != want {
		t.Fatalf("unexpected sample: %q", sample)
	}

	// short documents are used whole
	short := sampleText(chunks[:1], 2000)
	if short != strings.Repeat("a", 30) {
		t.Fatalf("unexpected short-document sample: %q", short)
	}
}

func TestLinguaDetectorFrench(t *testing.T) {
	if testing.Short() {
		t.Skip("lingua model loading is slow")
	}
	det := NewLinguaDetector()
	code, ok := det.DetectLanguage("Bonjour, ceci est un document rédigé entièrement en langue française pour vérifier la détection.")
	if !ok || code != "fr" {
		t.Fatalf("expected fr, got %q (ok=%v)", code, ok)
	}
}
