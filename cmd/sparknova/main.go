package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(runLauncher(nil))
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runLauncher(os.Args[2:]))
	case "toggle":
		os.Exit(runWindowCommand("toggle", "Show the launcher, or hide it when it is focused.", os.Args[2:], (*ipc.Client).Toggle))
	case "show":
		os.Exit(runWindowCommand("show", "Show the launcher and focus its search input.", os.Args[2:], (*ipc.Client).Show))
	case "hide":
		os.Exit(runWindowCommand("hide", "Hide the launcher.", os.Args[2:], (*ipc.Client).Hide))
	case "focus":
		os.Exit(runWindowCommand("focus", "Focus the launcher's search input.", os.Args[2:], (*ipc.Client).Focus))
	case "search":
		os.Exit(runSearch(os.Args[2:]))
	case "history":
		os.Exit(runHistory(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sparknova [command] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the launcher (default)")
	fmt.Fprintln(w, "  toggle              Show or hide the running launcher")
	fmt.Fprintln(w, "  show                Show the running launcher")
	fmt.Fprintln(w, "  hide                Hide the running launcher")
	fmt.Fprintln(w, "  focus               Focus the launcher's search input")
	fmt.Fprintln(w, "  status              Show launcher status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  search <query>      Search applications, commands, files and plugins")
	fmt.Fprintln(w, "  history             List or clear the query history")
	fmt.Fprintln(w, "  pick [query]        Search and launch through rofi, fuzzel, wofi or dmenu")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the configuration file path")
	fmt.Fprintln(w, "  config edit         Edit common settings interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'sparknova <command> --help' for command-specific options.")
}

// loadConfig reads the config at path, or the default location when path is
// empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func runWindowCommand(name, help string, args []string, send func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sparknova %s\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, help)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := send(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sparknova status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show launcher status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Fprintf(w, "visible:        %v\n", status.Visible)
	fmt.Fprintf(w, "query:          %q\n", status.Query)
	fmt.Fprintf(w, "results:        %d\n", status.ResultCount)
	fmt.Fprintf(w, "searching:      %v\n", status.IsSearching)
	fmt.Fprintf(w, "history:        %d\n", status.HistoryLength)
	fmt.Fprintf(w, "catalog_size:   %d\n", status.CatalogSize)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  sparknova config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  sparknova config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  sparknova config path")
		fmt.Fprintln(os.Stderr, "  sparknova config edit [--path PATH]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			cfg, err = loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "path":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		target := *path
		if target == "" {
			var err error
			if target, err = config.DefaultConfigPath(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		cfg, err := config.LoadFromPath(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		changed, err := tui.EditConfig(context.Background(), cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !changed {
			fmt.Println("config: unchanged")
			return 0
		}
		if err := cfg.SaveTo(target); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: saved %s (restart the launcher to apply)\n", target)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
