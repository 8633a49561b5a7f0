package models

// SourceKind is the detected type of an uploaded document.
type SourceKind string

const (
	SourcePDF         SourceKind = "pdf"
	SourceText        SourceKind = "text"
	SourceUnsupported SourceKind = "unsupported"
)

// ExtractedDocument is the plain text of one upload. It lives for a single
// analysis and is discarded once the prompt is built.
type ExtractedDocument struct {
	Text string
	Kind SourceKind
	// Pages is the number of PDF pages read; 0 for text files.
	Pages int
	// EmptyPages counts PDF pages that produced no text (e.g. scanned images).
	EmptyPages int
}
