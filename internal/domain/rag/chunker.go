package rag

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits page segments into retrieval-sized chunks.
type Chunker struct {
	chunkSize int // max runes per chunk
	overlap   int // overlapping runes between adjacent chunks
}

// NewChunker creates a chunker. Invalid sizes fall back to defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits the ordered segments into chunks that preserve document order.
// Each chunk keeps its source page; Offset numbers chunks across the whole
// document. Chunks never span page boundaries.
func (c *Chunker) Chunk(segments []PageSegment) []Chunk {
	var chunks []Chunk
	offset := 0

	for _, seg := range segments {
		for _, text := range c.split(seg.Text) {
			chunks = append(chunks, Chunk{
				Text:   text,
				Page:   seg.Page,
				Offset: offset,
			})
			offset++
		}
	}

	return chunks
}

// split merges paragraphs into chunks of at most chunkSize runes, carrying
// the tail of the previous chunk as overlap. Oversized paragraphs are
// hard-split on rune boundaries.
func (c *Chunker) split(text string) []string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)

		if paraLen > c.chunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			runes := []rune(para)
			for i := 0; i < len(runes); i += c.chunkSize - c.overlap {
				end := i + c.chunkSize
				if end > len(runes) {
					end = len(runes)
				}
				chunks = append(chunks, string(runes[i:end]))
				if end >= len(runes) {
					break
				}
			}
			continue
		}

		currentLen := utf8.RuneCountInString(current.String())
		if currentLen+paraLen+1 > c.chunkSize {
			chunks = append(chunks, current.String())
			prev := current.String()
			current.Reset()
			if c.overlap > 0 {
				prevRunes := []rune(prev)
				if len(prevRunes) > c.overlap {
					current.WriteString(string(prevRunes[len(prevRunes)-c.overlap:]))
					current.WriteString("\n")
				}
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(para)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func splitParagraphs(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	rawParts := strings.Split(text, "\n")
	var parts []string
	for _, p := range rawParts {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
