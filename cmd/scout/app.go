package main

import (
	"context"
	"fmt"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/internal/agent"
	"github.com/scoutdig/scout/internal/agent/telemetry"
	"github.com/scoutdig/scout/internal/runlog"
	"github.com/scoutdig/scout/internal/session"
	"github.com/scoutdig/scout/internal/store"
	"github.com/scoutdig/scout/internal/tools"
	"github.com/scoutdig/scout/internal/tools/reddit"
	"github.com/scoutdig/scout/internal/tools/webfetch"
	"github.com/scoutdig/scout/internal/tools/websearch"
	"github.com/scoutdig/scout/models"
	"github.com/scoutdig/scout/provider"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg       *config.Config
	runner    *agent.Runner
	registry  *tools.Registry
	sessions  session.Store
	archive   *store.Store
	telemetry *telemetry.Telemetry
}

// buildApp performs the top-level dependency wiring. The Postgres
// archive is only attached when requested and configured, the CLI
// commands work without it.
func buildApp(ctx context.Context, cfgPath string, withArchive bool) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	tel := telemetry.NewTelemetry(cfg.Telemetry)

	var writer *runlog.Writer
	if cfg.Telemetry.LogFile != "" {
		writer, err = runlog.NewWriter(cfg.Telemetry.LogFile)
		if err != nil {
			return nil, err
		}
	}

	sessions, err := session.NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	var archive *store.Store
	if withArchive && postgresConfigured(cfg) {
		archive, err = store.New(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, fmt.Errorf("run archive: %w", err)
		}
	}

	return &app{
		cfg:       cfg,
		runner:    agent.NewRunner(cfg, llm, registry, tel, writer),
		registry:  registry,
		sessions:  sessions,
		archive:   archive,
		telemetry: tel,
	}, nil
}

// buildRegistry registers every tool the configuration enables.
func buildRegistry(cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	if err := registry.Register(&tools.CurrentDateTool{}); err != nil {
		return nil, err
	}

	if cfg.Tools.Reddit.ClientID != "" && cfg.Tools.Reddit.ClientSecret != "" {
		client := reddit.NewClient(cfg.Tools.Reddit, cfg.Tools.Timeout)
		limit := cfg.Tools.Reddit.SearchLimit
		if err := registry.Register(&reddit.SubredditSearchTool{Client: client, DefaultLimit: limit}); err != nil {
			return nil, err
		}
		if err := registry.Register(&reddit.SubredditContentTool{Client: client, DefaultLimit: limit}); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.WebSearch.SerperAPIKey != "" || cfg.Tools.WebSearch.BraveAPIKey != "" {
		searcher, err := websearch.NewSearcher(cfg.Tools.WebSearch, cfg.Tools.Timeout)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(&websearch.Tool{Searcher: searcher, DefaultLimit: cfg.Tools.WebSearch.MaxResults}); err != nil {
			return nil, err
		}
	}

	if cfg.Tools.WebFetch.Enabled {
		fetcher := webfetch.NewFetcher(cfg.Tools.WebFetch.Timeout, cfg.Tools.WebFetch.MaxChars)
		if err := registry.Register(&webfetch.Tool{Fetcher: fetcher}); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func postgresConfigured(cfg *config.Config) bool {
	pg := cfg.Storage.Postgres
	return pg.URL != "" || (pg.Host != "" && pg.DBName != "")
}

// loadConfigOnly serves commands that never call the model and must not
// require API keys to be present.
func loadConfigOnly(path string) (*config.Config, error) {
	return config.LoadConfigUnvalidated(path)
}

func printRunSummary(entry models.RunLog) {
	status := "ok"
	if !entry.Success {
		status = "failed"
	}
	fmt.Printf("%s  %s  [%s]  tools=%d  tokens=%d  %.1fs\n",
		entry.Timestamp.Format("2006-01-02 15:04:05"), entry.ID, status,
		len(entry.ToolCalls), entry.TokensUsed, entry.LatencySeconds)
	fmt.Printf("  Q: %s\n", truncate(entry.Query, 100))
	if entry.Answer != "" {
		fmt.Printf("  A: %s\n", truncate(entry.Answer, 160))
	}
	if entry.Error != "" {
		fmt.Printf("  E: %s\n", entry.Error)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
