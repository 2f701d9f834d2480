package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepsage/deepsage/pkg/embed"
	"github.com/deepsage/deepsage/pkg/extract"
)

// OCR recognizes text in an image file. Implementations are optional; a nil
// hook makes image-only items skippable instead of mixing incompatible
// embedding dimensions.
type OCR interface {
	Recognize(ctx context.Context, filePath string) (string, error)
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Loader embeds a local document corpus into a knowledge base.
type Loader struct {
	pipeline *embed.TextPipeline
	ocr      OCR
}

func NewLoader(pipeline *embed.TextPipeline, ocr OCR) *Loader {
	return &Loader{pipeline: pipeline, ocr: ocr}
}

// Load walks dir and appends one entry per readable document: .txt and .md
// as-is, .pdf through text extraction, images through the OCR hook when one
// is configured. Unreadable or text-free files are logged and skipped.
func (l *Loader) Load(ctx context.Context, dir string, kb *KnowledgeBase) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("corpus dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("corpus path %s is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		text, ok := l.readDocument(ctx, path)
		if !ok {
			return nil
		}

		vec, err := l.pipeline.EmbedText(ctx, text)
		if err != nil {
			slog.Warn("corpus document skipped, embedding failed", "path", path, "error", err)
			return nil
		}
		kb.Add(CorpusEntry{
			Embedding: vec,
			Metadata: Metadata{
				FilePath: path,
				Type:     TypeLocal,
				Snippet:  Snippet(text),
			},
		})
		return nil
	})
}

func (l *Loader) readDocument(ctx context.Context, path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".txt" || ext == ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("corpus document unreadable", "path", path, "error", err)
			return "", false
		}
		text := strings.TrimSpace(string(data))
		return text, text != ""

	case ext == ".pdf":
		text, err := extract.PDF(path)
		if err != nil {
			slog.Warn("corpus pdf unreadable", "path", path, "error", err)
			return "", false
		}
		text = strings.TrimSpace(text)
		return text, text != ""

	case imageExtensions[ext]:
		if l.ocr == nil {
			slog.Debug("image skipped, no OCR configured", "path", path)
			return "", false
		}
		text, err := l.ocr.Recognize(ctx, path)
		if err != nil {
			slog.Warn("image OCR failed", "path", path, "error", err)
			return "", false
		}
		text = strings.TrimSpace(text)
		return text, text != ""

	default:
		return "", false
	}
}
