//go:build linux

package daemon

import (
	"log/slog"
	"os"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/platform"
)

// openBackend connects to the X display named by the config. Without a
// display the launcher still serves IPC and the TUI.
func openBackend(cfg *config.Config, logger *slog.Logger) platform.Backend {
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		logger.Warn("no X display, window control disabled", "display", cfg.Display, "error", err)
		return platform.NullBackend{}
	}
	logger.Info("connected to X display", "display", cfg.Display, "window", backend.MainWindow())
	return backend
}
