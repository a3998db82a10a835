package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a one-page PDF with a single text object. Enough
// structure for the parser; not a general-purpose PDF writer.
func minimalPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)

	var sb strings.Builder
	var offsets []int
	write := func(s string) {
		sb.WriteString(s)
	}
	object := func(s string) {
		offsets = append(offsets, sb.Len())
		write(s)
	}

	write("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	object("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	object("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	object(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content))
	object("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefPos := sb.Len()
	write(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos))

	return []byte(sb.String())
}

func TestPDFExtractor_Extract(t *testing.T) {
	e := NewPDFExtractor()

	text, err := e.Extract(minimalPDF("Customer disputes a fee"))
	require.NoError(t, err)
	assert.Contains(t, text, "Customer disputes a fee")
}

func TestPDFExtractor_Deterministic(t *testing.T) {
	e := NewPDFExtractor()
	data := minimalPDF("Identical bytes yield identical text")

	first, err := e.Extract(data)
	require.NoError(t, err)
	second, err := e.Extract(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPDFExtractor_CorruptBytes(t *testing.T) {
	e := NewPDFExtractor()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("this is plain text, not a document")},
		{"truncated header", []byte("%PDF-1.4\ngarbage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(tt.data)
			assert.Error(t, err)
		})
	}
}
