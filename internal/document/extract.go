package document

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ExtractText pulls plain text out of raw document bytes. PDFs go
// through mupdf; anything text-shaped passes through as-is.
func ExtractText(data []byte, mimeType string) (string, error) {
	switch normalizeMime(mimeType) {
	case "application/pdf":
		return extractPDF(data)
	default:
		return string(data), nil
	}
}

func normalizeMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}

func extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var parts []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
