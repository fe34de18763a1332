package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/search"
)

// cliLogger reports only problems; stdout carries command output.
func cliLogger(cfg *config.Config) *slog.Logger {
	level := "warn"
	if cfg.Log.Level == "debug" {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, logging.Options{Level: level, Prefix: "sparknova"})
	if err != nil {
		return logging.Discard()
	}
	return logger
}

func runSearch(args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
	jsonOut := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sparknova search [--json] [--config PATH] <query>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Search through the running launcher, or locally when it is not running.")
		fmt.Fprintln(os.Stderr, "The query is recorded in the history.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "search requires a query")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	client := newLauncherClient(cfg, ipc.NewClient(), cliLogger(cfg))
	defer client.Close()

	results, err := client.Search(context.Background(), query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ipc.SearchData{Query: query, Results: results}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printResults(os.Stdout, results)
	return 0
}

func printResults(w io.Writer, results []search.Item) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Type, r.Title, r.Description)
	}
	tw.Flush()
}

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
	clearHistory := fs.Bool("clear", false, "Clear the history")
	jsonOut := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sparknova history [--clear] [--json] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List recent queries, most recent first.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "history takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	client := newLauncherClient(cfg, ipc.NewClient(), cliLogger(cfg))
	defer client.Close()
	ctx := context.Background()

	if *clearHistory {
		if err := client.ClearHistory(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("history cleared")
		return 0
	}

	history, err := client.History(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ipc.HistoryData{History: history}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	for _, q := range history {
		fmt.Println(q)
	}
	return 0
}
