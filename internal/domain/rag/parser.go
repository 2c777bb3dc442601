package rag

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	applog "github.com/bryantchakote/rag-app-avct/internal/platform/log"
)

// ── Parser interface ─────────────────────────────────────────

// Parser extracts ordered, page-preserving text segments from a document.
// A document with no extractable text yields an empty segment slice, not an
// error; downstream components treat zero segments as a valid terminal case.
type Parser interface {
	Parse(reader io.Reader, filename string) ([]PageSegment, error)
	// SupportedTypes supported file extensions
	SupportedTypes() []string
}

// ── PDF parser ───────────────────────────────────────────────

// PDFParser extracts PDF text page by page.
type PDFParser struct{}

func (p *PDFParser) SupportedTypes() []string {
	return []string{".pdf"}
}

func (p *PDFParser) Parse(reader io.Reader, filename string) ([]PageSegment, error) {
	// the pdf library needs io.ReaderAt + size, read into memory first
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf data: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := r.NumPage()
	var segments []PageSegment

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			applog.Warn("[RAG/Parser] Failed to extract page text", "file", filename, "page", i, "error", err)
			continue
		}
		text = strings.TrimSpace(cleanExtraNewlines(text))
		if text == "" {
			// scanned or image-only page, keep going
			continue
		}
		segments = append(segments, PageSegment{Page: i, Text: text})
	}

	return segments, nil
}

// ── DOCX parser ──────────────────────────────────────────────

// docxPageRunes pseudo-page budget for DOCX, which carries no hard page
// boundaries in its XML. Paragraphs are accumulated until the budget is hit.
const docxPageRunes = 3000

// DOCXParser extracts Word document text into pseudo-pages.
type DOCXParser struct{}

func (p *DOCXParser) SupportedTypes() []string {
	return []string{".docx"}
}

func (p *DOCXParser) Parse(reader io.Reader, filename string) ([]PageSegment, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read docx data: %w", err)
	}

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	// the docx library exposes raw XML, extract line-level plain text
	var lines []string
	content := r.Editable().GetContent()
	scanner := bufio.NewScanner(strings.NewReader(stripDocxTags(content)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	return paginate(lines, docxPageRunes), nil
}

// paginate folds paragraphs into fixed-budget pseudo-pages, preserving order.
func paginate(paragraphs []string, pageRunes int) []PageSegment {
	var segments []PageSegment
	var current strings.Builder
	currentRunes := 0
	page := 1

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			segments = append(segments, PageSegment{Page: page, Text: text})
			page++
		}
		current.Reset()
		currentRunes = 0
	}

	for _, para := range paragraphs {
		n := utf8.RuneCountInString(para)
		if currentRunes > 0 && currentRunes+n > pageRunes {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(para)
		currentRunes += n
	}
	flush()

	return segments
}

// ── Registry ─────────────────────────────────────────────────

// ParserRegistry maps file extensions to parsers. Only PDF and DOCX are
// registered; anything else is rejected before the pipeline runs.
type ParserRegistry struct {
	parsers map[string]Parser // key = ".ext"
}

// NewParserRegistry builds the registry with the built-in parsers.
func NewParserRegistry() *ParserRegistry {
	r := &ParserRegistry{parsers: make(map[string]Parser)}
	r.register(&PDFParser{})
	r.register(&DOCXParser{})
	return r
}

func (r *ParserRegistry) register(p Parser) {
	for _, ext := range p.SupportedTypes() {
		r.parsers[strings.ToLower(ext)] = p
	}
}

// Get resolves the parser for a file name, or fails with UNSUPPORTED_FORMAT.
func (r *ParserRegistry) Get(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	p, ok := r.parsers[ext]
	if !ok {
		return nil, NewErrorf(CodeUnsupportedFormat,
			"unsupported file type %q (supported: %s)", ext, r.SupportedTypes())
	}
	return p, nil
}

// SupportedTypes returns the accepted extensions, comma separated.
func (r *ParserRegistry) SupportedTypes() string {
	var types []string
	for ext := range r.parsers {
		types = append(types, ext)
	}
	// stable order for messages
	if len(types) == 2 && types[0] > types[1] {
		types[0], types[1] = types[1], types[0]
	}
	return strings.Join(types, ", ")
}

// ── helpers ──────────────────────────────────────────────────

var (
	reMultiNewlines = regexp.MustCompile(`\n{3,}`)
	reDocxTag       = regexp.MustCompile(`<[^>]+>`)
)

func cleanExtraNewlines(text string) string {
	return reMultiNewlines.ReplaceAllString(text, "\n\n")
}

func stripDocxTags(content string) string {
	// paragraph closings become line breaks before tags are dropped
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	return reDocxTag.ReplaceAllString(content, "")
}
