package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scoutdig/scout/internal/runlog"
	"github.com/scoutdig/scout/internal/server"
	"github.com/scoutdig/scout/internal/store"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "scout",
		Short: "Research agent that answers questions using Reddit and web search",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgPath, false)
			if err != nil {
				return err
			}
			defer a.telemetry.Shutdown()

			entry, err := a.runner.Run(ctx, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			fmt.Println(entry.Answer)
			return nil
		},
	}

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session, context carries across questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgPath, false)
			if err != nil {
				return err
			}
			defer a.telemetry.Shutdown()
			return runChat(ctx, a)
		},
	}

	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfgPath, true)
			if err != nil {
				return err
			}
			defer a.telemetry.Shutdown()

			srv := server.New(a.runner, a.sessions, a.archive, a.telemetry)
			return srv.Start(serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")

	var migDir, direction string
	var steps int
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				cfg, err := loadConfigOnly(cfgPath)
				if err != nil {
					return err
				}
				dsn = cfg.Storage.Postgres.PostgresDSN()
			}
			return store.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	root.AddCommand(ask, chat, serve, migrate, logsCommand(&cfgPath))

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runChat loops on stdin until the user quits. Each answer's turns are
// appended to the session so follow-up questions keep their context.
func runChat(ctx context.Context, a *app) error {
	sessionID, err := a.sessions.Ensure(ctx, "")
	if err != nil {
		return err
	}

	fmt.Println("scout ready. Ask a question, or type 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		switch strings.ToLower(query) {
		case "quit", "exit", "q":
			fmt.Println("bye")
			return nil
		}

		history, err := a.sessions.History(ctx, sessionID)
		if err != nil {
			return err
		}

		entry, err := a.runner.Run(ctx, query, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			continue
		}
		fmt.Printf("\nscout> %s\n\n", entry.Answer)

		if err := a.sessions.Append(ctx, sessionID, entry.Turns[len(history):]...); err != nil {
			fmt.Fprintf(os.Stderr, "session update failed: %v\n", err)
		}
	}
	return scanner.Err()
}

// logsCommand inspects the JSONL run log.
func logsCommand(cfgPath *string) *cobra.Command {
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Inspect recorded runs",
	}

	var searchLimit int
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Full text search over past queries and answers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOnly(*cfgPath)
			if err != nil {
				return err
			}
			idx, err := runlog.OpenIndex(cfg.Telemetry.LogFile)
			if err != nil {
				return err
			}
			defer idx.Close()

			hits, err := idx.Search(strings.Join(args, " "), searchLimit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("no matching runs")
				return nil
			}
			for _, hit := range hits {
				printRunSummary(hit)
			}
			return nil
		},
	}
	search.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")

	var tailN int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOnly(*cfgPath)
			if err != nil {
				return err
			}
			entries, err := runlog.Tail(cfg.Telemetry.LogFile, tailN)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				printRunSummary(entry)
			}
			return nil
		},
	}
	tail.Flags().IntVar(&tailN, "n", 10, "number of runs")

	logs.AddCommand(search, tail)
	return logs
}
