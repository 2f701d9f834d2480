package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages caps extraction; research PDFs front-load their substance and
// later pages are mostly references.
const maxPDFPages = 10

// PDF extracts text from the first pages of a PDF. Plain-text extraction is
// preferred; pages yielding nothing fall back to row assembly. An empty
// string is a valid result for image-only documents.
func PDF(filePath string) (string, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", filePath, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var parts []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageText(page)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func pageText(page pdf.Page) string {
	if text, err := page.GetPlainText(nil); err == nil {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			sb.WriteString(word.S)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
