package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRerank(t *testing.T) {
	t.Run("deduplicates by URL keeping first occurrence", func(t *testing.T) {
		results := []Result{
			{Title: "first", Href: "https://example.com/a", Source: "tavily"},
			{Title: "second", Href: "https://example.com/a", Source: "duckduckgo"},
			{Title: "third", Href: "https://example.com/b"},
		}
		out := Rerank(results, "", 3)
		assert.Len(t, out, 2)
		assert.Equal(t, "first", out[0].Title)
		assert.Equal(t, "tavily", out[0].Source)
	})

	t.Run("caps results per domain", func(t *testing.T) {
		var results []Result
		for i := 0; i < 10; i++ {
			results = append(results, Result{
				Title: fmt.Sprintf("result %d", i),
				Href:  fmt.Sprintf("https://example.com/page-%d", i),
			})
		}
		out := Rerank(results, "", 3)
		assert.Len(t, out, 3)
	})

	t.Run("domain cap applies per domain not overall", func(t *testing.T) {
		results := []Result{
			{Href: "https://a.com/1"},
			{Href: "https://a.com/2"},
			{Href: "https://a.com/3"},
			{Href: "https://a.com/4"},
			{Href: "https://b.com/1"},
		}
		out := Rerank(results, "", 3)
		assert.Len(t, out, 4)
	})

	t.Run("higher scored results rank first", func(t *testing.T) {
		results := []Result{
			{Title: "unrelated", Href: "https://blog.example.com/post", Body: "nothing here"},
			{Title: "quantum computing survey", Href: "https://arxiv.org/abs/1234", Body: "quantum computing advances"},
		}
		out := Rerank(results, "quantum computing", 3)
		assert.Equal(t, "https://arxiv.org/abs/1234", out[0].Href)
	})

	t.Run("drops results without href", func(t *testing.T) {
		out := Rerank([]Result{{Title: "no link"}}, "", 3)
		assert.Empty(t, out)
	})
}

func TestScoreResult(t *testing.T) {
	tests := []struct {
		name    string
		item    Result
		keyword string
		want    float64
	}{
		{
			name:    "keyword in title and body",
			item:    Result{Title: "Go concurrency patterns", Href: "https://blog.example.com/go", Body: "go concurrency explained"},
			keyword: "go concurrency",
			want:    3,
		},
		{
			name:    "authoritative domain bonus",
			item:    Result{Title: "report", Href: "https://www.cdc.gov/report"},
			keyword: "vaccines",
			want:    2,
		},
		{
			name:    "spam hint penalty",
			item:    Result{Title: "pins", Href: "https://pinterest.com/tag/stuff"},
			keyword: "vaccines",
			want:    -2,
		},
		{
			name:    "no signals",
			item:    Result{Title: "misc", Href: "https://example.org/page", Body: "misc"},
			keyword: "vaccines",
			want:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreResult(tt.item, tt.keyword))
		})
	}
}

func TestRecencyScore(t *testing.T) {
	fixed := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	defer func() { now = orig }()

	tests := []struct {
		name string
		item Result
		want float64
	}{
		{"published within a month", Result{Published: "2026-08-10"}, 2},
		{"published within six months", Result{Published: "2026-04-01"}, 1},
		{"stale", Result{Published: "2020-01-01"}, 0},
		{"date found in body", Result{Body: "updated 2026-08-20 with new figures"}, 2},
		{"no date anywhere", Result{Title: "timeless", Body: "no dates"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recencyScore(tt.item))
		})
	}
}
