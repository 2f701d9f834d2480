// Command deepsage runs one recursive research session from the terminal.
//
// Usage:
//
//	deepsage research "impact of microplastics on human health"
//	deepsage research --config deepsage.yaml --corpus ./docs "query"
//	deepsage version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/deepsage/deepsage"
	"github.com/deepsage/deepsage/pkg/config"
	"github.com/deepsage/deepsage/pkg/embed"
	"github.com/deepsage/deepsage/pkg/fetcher"
	"github.com/deepsage/deepsage/pkg/knowledge"
	"github.com/deepsage/deepsage/pkg/llm"
	"github.com/deepsage/deepsage/pkg/logger"
	"github.com/deepsage/deepsage/pkg/search"
	"github.com/deepsage/deepsage/pkg/session"
)

// CLI defines the command-line interface.
type CLI struct {
	Research ResearchCmd `cmd:"" help:"Run a research session for a query."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(deepsage.GetVersion())
	return nil
}

// ResearchCmd drives one full session.
type ResearchCmd struct {
	Query  string `arg:"" help:"Research query."`
	Corpus string `help:"Local document corpus directory." type:"path"`
	NoWeb  bool   `help:"Disable the web expansion phase."`
}

func (c *ResearchCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Corpus != "" {
		cfg.CorpusDir = c.Corpus
	}
	if c.NoWeb {
		off := false
		cfg.WebSearchEnabled = &off
	}

	embedder, err := embed.NewFromConfig(cfg.Embedder)
	if err != nil {
		return err
	}
	pipeline := embed.NewTextPipeline(embedder, embed.FamilyFor(cfg.RetrievalModel))

	var model session.LanguageModel
	provider, err := llm.NewProviderFromConfig(cfg.LLM)
	if err != nil {
		slog.Warn("language model unavailable, continuing without one", "error", err)
	} else {
		manager, err := llm.NewManager(provider, cfg.LLM.Personality)
		if err != nil {
			return err
		}
		model = manager
	}

	manager := search.NewManager(search.DefaultEngines(cfg.IncludeWikipedia)...)
	downloader := fetcher.New(fetcher.WithConcurrency(cfg.WebConcurrency))

	opts := []session.Option{
		session.WithProgress(func(p session.Progress) {
			slog.Info("progress", "status", p.Status, "message", p.Message, "pct", p.ProgressPercentage)
		}),
	}
	if cfg.CorpusDir != "" {
		opts = append(opts, session.WithCorpusLoader(knowledge.NewLoader(pipeline, nil)))
	}

	s := session.New(cfg, manager, downloader, pipeline, model, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := s.Run(ctx, c.Query)
	if err != nil {
		return fmt.Errorf("session %s failed: %w", result.QueryID, err)
	}

	fmt.Printf("\nSession %s completed in %dms\n", result.QueryID, result.ProcessingTimeMs)
	fmt.Printf("Report: %s\n\n", cfg.ResultsBaseDir+"/"+result.QueryID+"/"+result.QueryID+"_output.md")
	if result.FinalAnswer != "" {
		fmt.Println(result.FinalAnswer)
	}
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("deepsage"),
		kong.Description("Recursive research agent: meta-search, polite crawling, embedding retrieval, and LLM aggregation."),
		kong.UsageOnError(),
	)

	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = file
	}
	logger.Init(logger.ParseLevel(cli.LogLevel), output, cli.LogFormat)

	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
