package search

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandQueries(t *testing.T) {
	variants, recency := ExpandQueries("carbon capture")

	require.Len(t, variants, 5)
	assert.Equal(t, "carbon capture", variants[0])
	assert.Contains(t, variants, `"carbon capture"`)
	assert.Contains(t, variants, "carbon capture filetype:pdf")
	assert.Contains(t, variants, "carbon capture site:gov")
	assert.Contains(t, variants, "carbon capture site:edu")
	assert.Equal(t, []string{"d", "w", "m"}, recency)
}

func TestDuckDuckGoSearch(t *testing.T) {
	page := `<html><body>
		<div class="result">
			<a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.com%2Fone">First hit</a>
			<div class="result__snippet">snippet one</div>
		</div>
		<div class="result">
			<a class="result__a" href="https://example.com/two">Second hit</a>
			<div class="result__snippet">snippet two</div>
		</div>
		<div class="result">
			<a class="result__a" href="https://example.com/three">Third hit</a>
		</div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "carbon capture", r.URL.Query().Get("q"))
		w.Write([]byte(page))
	}))
	defer srv.Close()

	e := NewDuckDuckGoEngine(WithDuckDuckGoEndpoint(srv.URL))
	results, err := e.Search(context.Background(), "carbon capture", 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "First hit", results[0].Title)
	assert.Equal(t, "https://example.com/one", results[0].Href, "uddg redirect should be unwrapped")
	assert.Equal(t, "snippet one", results[0].Body)
	assert.Equal(t, "ddg", results[0].Source)
	assert.Equal(t, "https://example.com/two", results[1].Href)
}

func TestDuckDuckGoRetriesOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`<div class="result"><a class="result__a" href="https://example.com/a">hit</a></div>`))
	}))
	defer srv.Close()

	e := NewDuckDuckGoEngine(WithDuckDuckGoEndpoint(srv.URL))
	results, err := e.Search(context.Background(), "retry", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestResolveDuckDuckGoHref(t *testing.T) {
	assert.Equal(t, "https://example.com/a?x=1",
		resolveDuckDuckGoHref("/l/?uddg=https%3A%2F%2Fexample.com%2Fa%3Fx%3D1"))
	assert.Equal(t, "https://example.com/plain",
		resolveDuckDuckGoHref("https://example.com/plain"))
}

func TestSearxNGSearch(t *testing.T) {
	var queries int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "test" {
			w.Write([]byte(`{"results":[]}`))
			return
		}
		atomic.AddInt32(&queries, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "hit for " + q, "url": "https://example.com/" + q, "content": "body", "publishedDate": "2026-08-01"},
			},
		})
	}))
	defer srv.Close()

	e := NewSearxNGEngine(
		WithSearxNGEndpoints([]string{srv.URL}),
		WithSearxNGRand(rand.New(rand.NewSource(1))),
	)
	results, err := e.Search(context.Background(), "fusion energy", 5)

	require.NoError(t, err)
	// 5 recall variants plus 3 recency windows.
	assert.EqualValues(t, 8, atomic.LoadInt32(&queries))
	assert.Len(t, results, 8)
	assert.Equal(t, "searxng", results[0].Source)
	assert.Equal(t, "2026-08-01", results[0].Published)
}

func TestSearxNGNoHealthyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewSearxNGEngine(WithSearxNGEndpoints([]string{srv.URL}))
	_, err := e.Search(context.Background(), "anything", 5)
	assert.Error(t, err)

	// The probe result is cached; the second call must not re-probe.
	_, err = e.Search(context.Background(), "anything", 5)
	assert.Error(t, err)
}

func TestWikipediaSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "alan turing", r.URL.Query().Get("srsearch"))
		w.Write([]byte(`{"query":{"search":[
			{"title":"Alan Turing","snippet":"<span class=\"searchmatch\">Alan Turing</span> was a mathematician"}
		]}}`))
	}))
	defer srv.Close()

	e := NewWikipediaEngine(WithWikipediaAPI(srv.URL))
	results, err := e.Search(context.Background(), "alan turing", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alan Turing", results[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Alan_Turing", results[0].Href)
	assert.Equal(t, "Alan Turing was a mathematician", results[0].Body)
	assert.Equal(t, "wikipedia", results[0].Source)
}

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tvly-key", req.APIKey)
		assert.Equal(t, "ocean acidification", req.Query)
		w.Write([]byte(`{"results":[
			{"title":"Report","url":"https://noaa.gov/report","content":"findings"},
			{"title":"Empty","url":"","content":"skipped"}
		]}`))
	}))
	defer srv.Close()

	e, err := NewTavilyEngine("tvly-key", WithTavilyAPI(srv.URL))
	require.NoError(t, err)

	results, err := e.Search(context.Background(), "ocean acidification", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://noaa.gov/report", results[0].Href)
	assert.Equal(t, "tavily", results[0].Source)
}

func TestTavilyRequiresKey(t *testing.T) {
	_, err := NewTavilyEngine("")
	assert.Error(t, err)
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brave-token", r.Header.Get("X-Subscription-Token"))
		w.Write([]byte(`{"web":{"results":[
			{"title":"Brave hit","url":"https://example.com/brave","description":"desc"}
		]}}`))
	}))
	defer srv.Close()

	e := NewBraveEngine("brave-token", WithBraveAPI(srv.URL))
	results, err := e.Search(context.Background(), "anything", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Brave hit", results[0].Title)
	assert.Equal(t, "brave", results[0].Source)
}
