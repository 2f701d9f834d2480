// Package deepsage is a recursive research agent.
//
// Given a query, DeepSage enhances it with a language model, splits it into
// sub-queries, and expands each one recursively: meta-search across several
// engines, politeness-aware page downloads, layered text extraction, and
// embedding-based relevance gating. Everything retrieved lands in an
// in-memory knowledge base that feeds a final aggregated answer.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/deepsage/deepsage/cmd/deepsage@latest
//
// Run a session:
//
//	deepsage research "impact of microplastics on human health"
//
// With a local document corpus and a config file:
//
//	deepsage research --config deepsage.yaml --corpus ./docs "query"
//
// # Configuration
//
// Configuration is a flat YAML file plus environment variables; see
// pkg/config for the full key set. Engine credentials (TAVILY_API_KEY,
// BRAVE_API_KEY) and provider keys (OPENAI_API_KEY, ANTHROPIC_API_KEY) are
// read from the environment or a .env file.
//
// # Library Use
//
// The pipeline is usable without the CLI:
//
//	import (
//	    "github.com/deepsage/deepsage/pkg/search"
//	    "github.com/deepsage/deepsage/pkg/session"
//	)
//
// Build a session.Session from a config, an engine manager, a fetcher, an
// embedding pipeline, and an optional LLM manager, then call Run. Results
// persist under results/<query_id>/ as a TOC analysis JSON and a markdown
// report.
package deepsage
