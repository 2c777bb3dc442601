package rag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkRespectsSizeLimit(t *testing.T) {
	c := NewChunker(50, 10)
	long := strings.Repeat("mot clé ", 60)

	chunks := c.Chunk([]PageSegment{{Page: 1, Text: long}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Text); n > 50 {
			t.Fatalf("chunk %d has %d runes, limit is 50", i, n)
		}
	}
}

func TestChunkPreservesOrderAndOffsets(t *testing.T) {
	c := NewChunker(512, 0)
	segments := []PageSegment{
		{Page: 1, Text: "premier paragraphe"},
		{Page: 2, Text: "deuxième paragraphe"},
		{Page: 3, Text: "troisième paragraphe"},
	}

	chunks := c.Chunk(segments)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Offset != i {
			t.Fatalf("chunk %d has offset %d", i, ch.Offset)
		}
		if ch.Page != i+1 {
			t.Fatalf("chunk %d attributed to page %d, want %d", i, ch.Page, i+1)
		}
	}
}

func TestChunksNeverSpanPages(t *testing.T) {
	c := NewChunker(1000, 100)
	segments := []PageSegment{
		{Page: 1, Text: "texte de la page un"},
		{Page: 2, Text: "texte de la page deux"},
	}

	chunks := c.Chunk(segments)
	for _, ch := range chunks {
		onPageOne := strings.Contains(ch.Text, "page un")
		onPageTwo := strings.Contains(ch.Text, "page deux")
		if onPageOne && onPageTwo {
			t.Fatalf("chunk spans pages: %q", ch.Text)
		}
	}
}

func TestChunkOverlapCarriesTail(t *testing.T) {
	c := NewChunker(30, 10)
	// paragraphs short enough to merge, long enough to force a split
	text := "aaaaaaaaaaaaaaaaaaaa\nbbbbbbbbbbbbbbbbbbbb\ncccccccccccccccccccc"

	chunks := c.Chunk([]PageSegment{{Page: 1, Text: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}

	first := []rune(chunks[0].Text)
	tail := string(first[len(first)-10:])
	if !strings.Contains(chunks[1].Text, tail) {
		t.Fatalf("second chunk does not carry the 10-rune tail %q:\n%q", tail, chunks[1].Text)
	}
}

func TestChunkEmptySegments(t *testing.T) {
	c := NewChunker(512, 128)

	if got := c.Chunk(nil); len(got) != 0 {
		t.Fatalf("expected no chunks for nil segments, got %d", len(got))
	}
	if got := c.Chunk([]PageSegment{{Page: 1, Text: "   \n  "}}); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace-only segment, got %d", len(got))
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		overlap   int
		wantSize  int
		wantOverl int
	}{
		{name: "zero size", size: 0, overlap: 10, wantSize: 512, wantOverl: 10},
		{name: "negative overlap", size: 100, overlap: -1, wantSize: 100, wantOverl: 25},
		{name: "overlap >= size", size: 100, overlap: 100, wantSize: 100, wantOverl: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChunker(tt.size, tt.overlap)
			if c.chunkSize != tt.wantSize || c.overlap != tt.wantOverl {
				t.Fatalf("got size=%d overlap=%d, want size=%d overlap=%d",
					c.chunkSize, c.overlap, tt.wantSize, tt.wantOverl)
			}
		})
	}
}
