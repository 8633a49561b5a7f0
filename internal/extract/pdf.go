package extract

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// pdfReader adapts ledongthuc/pdf to PDFDocument.
type pdfReader struct {
	r *pdf.Reader
}

func openPDF(r io.ReaderAt, size int64) (PDFDocument, error) {
	pr, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return &pdfReader{r: pr}, nil
}

func (p *pdfReader) NumPages() int { return p.r.NumPage() }

// PageText recovers from parser panics, which malformed font tables can
// trigger, and reports them as an error for that page only.
func (p *pdfReader) PageText(i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", i, rec)
		}
	}()

	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
