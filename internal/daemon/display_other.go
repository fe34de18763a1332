//go:build !linux

package daemon

import (
	"log/slog"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/platform"
)

func openBackend(_ *config.Config, logger *slog.Logger) platform.Backend {
	logger.Warn("window control is only supported on Linux")
	return platform.NullBackend{}
}
