// Package extract converts binary documents into plain text.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts the text layer of PDF documents. It is stateless and
// safe for concurrent use. Extraction is deterministic: identical bytes
// always yield identical text.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the concatenated per-page text of the document in page
// order. An empty result is valid: a scanned PDF with no text layer extracts
// to nothing, which is not an error by itself. Unparseable bytes are.
func (e *PDFExtractor) Extract(data []byte) (text string, err error) {
	// The pdf library panics on some malformed cross-reference tables;
	// treat that the same as a parse error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A page without an extractable text layer contributes nothing.
			continue
		}
		sb.WriteString(pageText)
	}

	return sb.String(), nil
}
