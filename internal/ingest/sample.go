// Package ingest extracts writing-sample text from user uploads.
package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// maxSampleLen caps a stored writing sample. The prompt builder
// excerpts far less; the cap just bounds profile memory.
const maxSampleLen = 4000

// FromText normalizes a plain-text writing sample: trims surrounding
// whitespace and caps the length.
func FromText(text string) string {
	return truncate(strings.TrimSpace(text), maxSampleLen)
}

// DecodeBase64 decodes an uploaded base64 document, tolerating an
// optional data-URI prefix ("data:application/pdf;base64,...").
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// FromPDF extracts the plain text of a PDF document and normalizes it
// like FromText. Returns an error for documents that cannot be parsed
// or contain no extractable text.
func FromPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	sample := FromText(sb.String())
	if sample == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return sample, nil
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
