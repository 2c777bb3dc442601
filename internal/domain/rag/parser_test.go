package rag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParserRegistryGet(t *testing.T) {
	r := NewParserRegistry()

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "pdf", filename: "rapport.pdf", wantErr: false},
		{name: "pdf uppercase", filename: "RAPPORT.PDF", wantErr: false},
		{name: "docx", filename: "notes.docx", wantErr: false},
		{name: "doc legacy", filename: "notes.doc", wantErr: true},
		{name: "plain text", filename: "notes.txt", wantErr: true},
		{name: "no extension", filename: "notes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Get(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.filename)
				}
				if !IsCode(err, CodeUnsupportedFormat) {
					t.Fatalf("expected UNSUPPORTED_FORMAT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatalf("nil parser for %q", tt.filename)
			}
		})
	}
}

func TestStripDocxTags(t *testing.T) {
	xml := `<w:p><w:r><w:t>Premier paragraphe</w:t></w:r></w:p><w:p><w:r><w:t>Deuxième</w:t></w:r></w:p>`
	got := stripDocxTags(xml)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "Premier paragraphe" || lines[1] != "Deuxième" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestPaginate(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}

	segments := paginate(paragraphs, 50)
	if len(segments) != 3 {
		t.Fatalf("expected 3 pseudo-pages, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.Page != i+1 {
			t.Fatalf("segment %d has page %d", i, seg.Page)
		}
		if n := utf8.RuneCountInString(seg.Text); n > 50 {
			t.Fatalf("pseudo-page %d exceeds budget: %d runes", i+1, n)
		}
	}
}

func TestPaginateMergesSmallParagraphs(t *testing.T) {
	segments := paginate([]string{"un", "deux", "trois"}, 100)
	if len(segments) != 1 {
		t.Fatalf("expected one pseudo-page, got %d", len(segments))
	}
	if segments[0].Text != "un\ndeux\ntrois" {
		t.Fatalf("unexpected page text: %q", segments[0].Text)
	}
}

func TestPaginateEmpty(t *testing.T) {
	if got := paginate(nil, 100); len(got) != 0 {
		t.Fatalf("expected no pages, got %d", len(got))
	}
}

func TestCleanExtraNewlines(t *testing.T) {
	got := cleanExtraNewlines("a\n\n\n\n\nb\n\nc")
	if got != "a\n\nb\n\nc" {
		t.Fatalf("unexpected result: %q", got)
	}
}
