package fetcher

import (
	"encoding/json"
	"os"
	"time"
)

// Version tags sidecar files so stale artifacts from older crawler runs can
// be told apart.
const Version = "1.0"

const previewLimit = 800

// Sidecar is the provenance record written next to each downloaded page.
type Sidecar struct {
	Keyword       string `json:"keyword"`
	SourceEngine  string `json:"source_engine"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	FilePath      string `json:"file_path"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	DownloadedAt  string `json:"downloaded_at"`
	PublishedHint string `json:"published_hint"`
	TextPreview   string `json:"text_preview"`
	Version       string `json:"version"`
}

// NewSidecar fills the provenance record for a fetched page. text is the
// extracted body; only the first 800 chars survive as the preview.
func NewSidecar(page Page, keyword, sourceEngine, title, publishedHint, text string) Sidecar {
	return Sidecar{
		Keyword:       keyword,
		SourceEngine:  sourceEngine,
		Title:         title,
		URL:           page.URL,
		FilePath:      page.FilePath,
		ContentType:   page.ContentType,
		Size:          page.Size,
		DownloadedAt:  time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		PublishedHint: publishedHint,
		TextPreview:   truncatePreview(text),
		Version:       Version,
	}
}

// Write stores the sidecar as <file_path>.json beside the page.
func (s Sidecar) Write() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.FilePath+".json", data, 0o644)
}

func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "…"
}
