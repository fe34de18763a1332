package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/launch"
	"github.com/1broseidon/sparknova/internal/palette"
	"github.com/1broseidon/sparknova/internal/terminals"
)

func runPick(args []string) int {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
	backendName := fs.String("backend", "", "Palette backend: auto, rofi, fuzzel, wofi, dmenu (default: config palette)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sparknova pick [--backend NAME] [--config PATH] [query]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Search and launch through a dmenu-style palette. Without a query the")
		fmt.Fprintln(os.Stderr, "palette first asks for one, offering the history.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name := cfg.PaletteBackend
	if *backendName != "" {
		name = *backendName
	}
	backend, err := palette.NewBackend(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := cliLogger(cfg)
	client := newLauncherClient(cfg, ipc.NewClient(), logger)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	picker := &palette.Picker{
		Backend: backend,
		Source:  client,
		Opener: &launch.Launcher{
			Terminal: terminals.NewDetector(nil).Resolve(cfg.Terminal),
			Notify:   true,
			Logger:   logger,
		},
	}
	item, err := picker.Pick(ctx, strings.Join(fs.Args(), " "))
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("opened %s\n", item.Title)
	return 0
}
