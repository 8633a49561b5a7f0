// Package extract turns uploaded contract files into plain text.
package extract

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/contractscan/pkg/models"
)

// PDFDocument is the page-level view of a parsed PDF.
type PDFDocument interface {
	NumPages() int
	// PageText returns the text of page i, 1-indexed.
	PageText(i int) (string, error)
}

// PDFOpener parses a PDF held in memory.
type PDFOpener func(r io.ReaderAt, size int64) (PDFDocument, error)

// Extractor converts uploads into ExtractedDocuments. It holds no per-request
// state and is safe for concurrent use.
type Extractor struct {
	openPDF PDFOpener
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPDFOpener replaces the PDF parser.
func WithPDFOpener(open PDFOpener) Option {
	return func(e *Extractor) { e.openPDF = open }
}

// WithLogger sets the logger used for per-page diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New returns an Extractor backed by the pure-Go PDF reader.
func New(opts ...Option) *Extractor {
	e := &Extractor{openPDF: openPDF, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KindFor maps a file name to a source kind by its extension.
func KindFor(name string) models.SourceKind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return models.SourcePDF
	case "txt":
		return models.SourceText
	default:
		return models.SourceUnsupported
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract reads r to completion and returns its plain text. Files whose
// extension is not pdf or txt are rejected without reading r.
func (e *Extractor) Extract(name string, r io.Reader) (models.ExtractedDocument, error) {
	kind := KindFor(name)
	if kind == models.SourceUnsupported {
		return models.ExtractedDocument{Kind: kind}, models.UnsupportedFormat(filepath.Ext(name))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return models.ExtractedDocument{Kind: kind}, models.DecodeError("reading upload", err)
	}

	switch kind {
	case models.SourcePDF:
		return e.extractPDF(data)
	default:
		return extractText(data)
	}
}

func extractText(data []byte) (models.ExtractedDocument, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return models.ExtractedDocument{Kind: models.SourceText},
			models.DecodeError("text file is not valid UTF-8", nil)
	}
	return models.ExtractedDocument{Text: string(data), Kind: models.SourceText}, nil
}

// extractPDF joins page texts with a newline, in page order. Pages without a
// text layer contribute an empty segment; no OCR is attempted.
func (e *Extractor) extractPDF(data []byte) (models.ExtractedDocument, error) {
	doc, err := e.openPDF(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.ExtractedDocument{Kind: models.SourcePDF}, models.DecodeError("parsing pdf", err)
	}

	n := doc.NumPages()
	pages := make([]string, n)
	empty := 0
	for i := 1; i <= n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			e.logger.Debug("pdf page has no extractable text", "page", i, "error", err)
			text = ""
		}
		if strings.TrimSpace(text) == "" {
			empty++
		}
		pages[i-1] = text
	}
	if n > 0 && empty == n {
		e.logger.Warn("pdf has no text layer", "pages", n)
	}

	return models.ExtractedDocument{
		Text:       strings.Join(pages, "\n"),
		Kind:       models.SourcePDF,
		Pages:      n,
		EmptyPages: empty,
	}, nil
}

// CheckContent enforces the minimum amount of text needed before a document
// is worth sending for analysis. Whitespace does not count.
func CheckContent(doc models.ExtractedDocument, minChars int) error {
	got := utf8.RuneCountInString(strings.TrimSpace(doc.Text))
	if got < minChars {
		return models.InsufficientContent(got, minChars)
	}
	return nil
}
