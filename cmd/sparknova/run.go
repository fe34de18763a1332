package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/sparknova/internal/daemon"
	"github.com/1broseidon/sparknova/internal/ipc"
	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/tui"
)

func runLauncher(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/sparknova/config.yaml)")
	headless := fs.Bool("headless", false, "Serve IPC and the hotkey without the terminal UI")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sparknova run [--config PATH] [--headless]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the launcher in this terminal. Run it inside the terminal window")
		fmt.Fprintln(os.Stderr, "the hotkey should show and hide ($WINDOWID selects it).")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if ipc.NewClient().Ping() == nil {
		fmt.Fprintln(os.Stderr, "sparknova is already running")
		return 1
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		log.Fatalf("Failed to resolve log path: %v", err)
	}
	logger, logFile, err := logging.OpenFile(logPath, logging.Options{Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	scheduler := tui.NewScheduler()
	svc, err := daemon.New(ctx, daemon.Options{
		Config:    cfg,
		Logger:    logger,
		Scheduler: scheduler.Schedule,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer svc.Close()

	if err := svc.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *headless {
		fmt.Fprintf(os.Stderr, "sparknova running headless (log: %s)\n", logPath)
		<-ctx.Done()
		return 0
	}

	err = tui.Run(ctx, tui.Options{
		Store:     svc.Store(),
		Bridge:    svc.Bridge(),
		Launcher:  svc.Core().Launcher(),
		Scheduler: scheduler,
		Debounce:  cfg.SearchDebounce,
		Logger:    logger.With("component", "tui"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
