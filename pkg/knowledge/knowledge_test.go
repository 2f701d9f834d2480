package knowledge

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepsage/deepsage/pkg/embed"
)

func unit(v ...float32) []float32 {
	return embed.Normalize(v)
}

func TestKnowledgeBaseSearch(t *testing.T) {
	kb := NewKnowledgeBase()
	kb.Add(CorpusEntry{Embedding: unit(1, 0, 0), Metadata: Metadata{FilePath: "a.txt"}})
	kb.Add(CorpusEntry{Embedding: unit(0, 1, 0), Metadata: Metadata{FilePath: "b.txt"}})
	kb.Add(CorpusEntry{Embedding: unit(1, 1, 0), Metadata: Metadata{FilePath: "c.txt"}})

	t.Run("returns best matches first", func(t *testing.T) {
		hits := kb.Search(unit(1, 0, 0), 2)

		require.Len(t, hits, 2)
		assert.Equal(t, "a.txt", hits[0].Metadata.FilePath)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		assert.Equal(t, "c.txt", hits[1].Metadata.FilePath)
		assert.InDelta(t, math.Sqrt(2)/2, hits[1].Score, 1e-6)
	})

	t.Run("k larger than corpus returns everything", func(t *testing.T) {
		assert.Len(t, kb.Search(unit(1, 0, 0), 10), 3)
	})

	t.Run("non-positive k returns nothing", func(t *testing.T) {
		assert.Empty(t, kb.Search(unit(1, 0, 0), 0))
		assert.Empty(t, kb.Search(unit(1, 0, 0), -1))
	})

	t.Run("entries keep insertion order", func(t *testing.T) {
		entries := kb.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "a.txt", entries[0].Metadata.FilePath)
		assert.Equal(t, "c.txt", entries[2].Metadata.FilePath)
	})
}

func TestLateInteractionScore(t *testing.T) {
	a := unit(1, 0)
	b := unit(0, 1)
	assert.InDelta(t, 0, LateInteractionScore(a, b), 1e-6)
	assert.InDelta(t, 1, LateInteractionScore(a, a), 1e-6)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))
	assert.Equal(t, "line one line two", Snippet("line one\nline two"))

	long := strings.Repeat("x", 150)
	got := Snippet(long)
	assert.Len(t, got, 103)
	assert.True(t, strings.HasSuffix(got, "..."))
}

type fakeChunkEmbedder struct{}

func (fakeChunkEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (fakeChunkEmbedder) Dimension() int { return 2 }

func (fakeChunkEmbedder) ModelName() string { return "fake" }

type fakeOCR struct {
	text string
}

func (f fakeOCR) Recognize(context.Context, string) (string, error) {
	return f.text, nil
}

func TestLoader(t *testing.T) {
	pipeline := embed.NewTextPipeline(fakeChunkEmbedder{}, embed.FamilyFor("all-minilm"))

	t.Run("loads text documents with unit-norm embeddings", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("solar panel efficiency trends"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.bin"), []byte{0x01, 0x02}, 0o644))

		kb := NewKnowledgeBase()
		require.NoError(t, NewLoader(pipeline, nil).Load(context.Background(), dir, kb))

		require.Equal(t, 1, kb.Len())
		entry := kb.Entries()[0]
		assert.Equal(t, TypeLocal, entry.Metadata.Type)
		assert.Equal(t, "solar panel efficiency trends", entry.Metadata.Snippet)
		assert.InDelta(t, 1.0, LateInteractionScore(entry.Embedding, entry.Embedding), 1e-6)
	})

	t.Run("images are skipped without OCR", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "figure.png"), []byte("fake image"), 0o644))

		kb := NewKnowledgeBase()
		require.NoError(t, NewLoader(pipeline, nil).Load(context.Background(), dir, kb))
		assert.Zero(t, kb.Len())
	})

	t.Run("images go through the OCR hook when configured", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "figure.png"), []byte("fake image"), 0o644))

		kb := NewKnowledgeBase()
		require.NoError(t, NewLoader(pipeline, fakeOCR{text: "chart of emissions"}).Load(context.Background(), dir, kb))

		require.Equal(t, 1, kb.Len())
		assert.Equal(t, "chart of emissions", kb.Entries()[0].Metadata.Snippet)
	})

	t.Run("missing corpus dir errors", func(t *testing.T) {
		err := NewLoader(pipeline, nil).Load(context.Background(), filepath.Join(t.TempDir(), "absent"), NewKnowledgeBase())
		assert.Error(t, err)
	})
}
