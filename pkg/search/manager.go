package search

import (
	"context"
	"log/slog"
	"os"
)

// Manager tries engines in priority order; a failing or empty engine falls
// through to the next. Results are concatenated, never interleaved.
type Manager struct {
	engines []Engine
}

func NewManager(engines ...Engine) *Manager {
	return &Manager{engines: engines}
}

// Engines returns the ordered engine list.
func (m *Manager) Engines() []Engine {
	return m.engines
}

// Search aggregates results across the engine chain. Engine errors are
// logged and treated as empty; an empty final list is a valid result.
// Once the aggregate reaches twice maxResults, remaining engines are skipped.
func (m *Manager) Search(ctx context.Context, keyword string, maxResults int) []Result {
	var aggregate []Result
	for _, eng := range m.engines {
		chunk, err := eng.Search(ctx, keyword, maxResults)
		if err != nil {
			slog.Warn("engine search failed", "engine", eng.Name(), "error", err)
			continue
		}
		aggregate = append(aggregate, chunk...)
		if len(aggregate) >= maxResults*2 {
			break
		}
	}
	return aggregate
}

// DefaultEngines builds the standard fallback chain from the environment:
// Tavily (if keyed) first, then DuckDuckGo, SearxNG, optionally Wikipedia,
// and Brave (if keyed) last.
func DefaultEngines(includeWikipedia bool) []Engine {
	var engines []Engine

	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		if tavily, err := NewTavilyEngine(key); err == nil {
			engines = append(engines, tavily)
		} else {
			slog.Warn("tavily engine unavailable", "error", err)
		}
	}

	engines = append(engines, NewDuckDuckGoEngine())
	engines = append(engines, NewSearxNGEngine())

	if includeWikipedia {
		engines = append(engines, NewWikipediaEngine())
	}
	if token := os.Getenv("BRAVE_API_KEY"); token != "" {
		engines = append(engines, NewBraveEngine(token))
	}
	return engines
}
