// Package extract turns downloaded artifacts into plain text. HTML goes
// through a layered strategy (article extraction, then main-content
// selection, then raw strip); PDFs are read page by page with a hard page
// cap.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extract returns the plain text of a downloaded file, dispatching on
// extension. Unknown extensions are treated as HTML, matching the fetcher's
// routing.
func Extract(filePath string) (string, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		return PDF(filePath)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return HTML(content), nil
}
