package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/sparknova/internal/runtimepath"
)

const (
	DefaultHotkey          = "Control-Shift-s"
	DefaultAutoFocusDelay  = 150 * time.Millisecond
	DefaultBlurHideDelay   = 3 * time.Second
	DefaultMaxResults      = 50
	DefaultSearchDebounce  = 150 * time.Millisecond
	DefaultRefreshInterval = 5 * time.Minute
	DefaultTerminal        = "x-terminal-emulator -e {{cmd}}"
)

// WindowConfig sizes the launcher window relative to the active monitor.
type WindowConfig struct {
	// WidthRatio is the fraction of the monitor width the window takes.
	WidthRatio float64 `yaml:"width_ratio"`
	MinWidth   int     `yaml:"min_width"`
	MaxWidth   int     `yaml:"max_width"`
	Height     int     `yaml:"height"`
}

// FilesSource configures the file provider.
type FilesSource struct {
	Dirs     []string `yaml:"dirs"`
	MaxDepth int      `yaml:"max_depth"`
}

// PluginConfig describes an external command offered as a plugin result.
// The literal "{query}" in Args is replaced with the current query.
type PluginConfig struct {
	Name        string   `yaml:"name"`
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Icon        string   `yaml:"icon,omitempty"`
}

// SourcesConfig selects what the catalog indexes.
type SourcesConfig struct {
	Applications    bool           `yaml:"applications"`
	ApplicationDirs []string       `yaml:"application_dirs,omitempty"`
	Commands        bool           `yaml:"commands"`
	Files           FilesSource    `yaml:"files"`
	Plugins         []PluginConfig `yaml:"plugins,omitempty"`
	RefreshInterval time.Duration  `yaml:"refresh_interval"`
}

// LogConfig configures the log sink.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File defaults to $XDG_STATE_HOME/sparknova/sparknova.log.
	File string `yaml:"file,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	Hotkey         string        `yaml:"hotkey"`
	AutoFocusDelay time.Duration `yaml:"auto_focus_delay"`
	BlurHideDelay  time.Duration `yaml:"blur_hide_delay"`
	MaxResults     int           `yaml:"max_results"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
	StatePathRaw   string        `yaml:"state_path,omitempty"`
	Display        string        `yaml:"display,omitempty"`
	XAuthority     string        `yaml:"xauthority,omitempty"`
	Window         WindowConfig  `yaml:"window"`
	Sources        SourcesConfig `yaml:"sources"`
	PaletteBackend string        `yaml:"palette"`
	Log            LogConfig     `yaml:"log"`

	// Terminal runs applications that declare Terminal=true. {{cmd}} is
	// replaced with the application's command line.
	Terminal string `yaml:"terminal"`
}

func DefaultConfig() *Config {
	return &Config{
		Hotkey:         DefaultHotkey,
		AutoFocusDelay: DefaultAutoFocusDelay,
		BlurHideDelay:  DefaultBlurHideDelay,
		MaxResults:     DefaultMaxResults,
		SearchDebounce: DefaultSearchDebounce,
		Window: WindowConfig{
			WidthRatio: 0.75,
			MinWidth:   400,
			MaxWidth:   960,
			Height:     420,
		},
		Sources: SourcesConfig{
			Applications: true,
			Commands:     true,
			Files: FilesSource{
				MaxDepth: 3,
			},
			RefreshInterval: DefaultRefreshInterval,
		},
		PaletteBackend: "auto",
		Terminal:       DefaultTerminal,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ValidationError points at the offending config key.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.AutoFocusDelay < 0 {
		return &ValidationError{Path: "auto_focus_delay", Err: fmt.Errorf("auto_focus_delay must be >= 0")}
	}
	if c.BlurHideDelay < 0 {
		return &ValidationError{Path: "blur_hide_delay", Err: fmt.Errorf("blur_hide_delay must be >= 0")}
	}
	if c.SearchDebounce < 0 {
		return &ValidationError{Path: "search_debounce", Err: fmt.Errorf("search_debounce must be >= 0")}
	}
	if c.MaxResults <= 0 {
		return &ValidationError{Path: "max_results", Err: fmt.Errorf("max_results must be > 0")}
	}
	if c.Window.WidthRatio <= 0 || c.Window.WidthRatio > 1 {
		return &ValidationError{Path: "window.width_ratio", Err: fmt.Errorf("width_ratio must be in (0, 1]")}
	}
	if c.Window.MinWidth <= 0 {
		return &ValidationError{Path: "window.min_width", Err: fmt.Errorf("min_width must be > 0")}
	}
	if c.Window.MaxWidth < c.Window.MinWidth {
		return &ValidationError{Path: "window.max_width", Err: fmt.Errorf("max_width must be >= min_width")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.Sources.Files.MaxDepth < 0 {
		return &ValidationError{Path: "sources.files.max_depth", Err: fmt.Errorf("max_depth must be >= 0")}
	}
	if c.Sources.RefreshInterval < 0 {
		return &ValidationError{Path: "sources.refresh_interval", Err: fmt.Errorf("refresh_interval must be >= 0")}
	}
	seen := make(map[string]struct{}, len(c.Sources.Plugins))
	for i, p := range c.Sources.Plugins {
		path := fmt.Sprintf("sources.plugins[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("plugin name is required")}
		}
		if strings.TrimSpace(p.Command) == "" {
			return &ValidationError{Path: path + ".command", Err: fmt.Errorf("plugin %q has no command", p.Name)}
		}
		if _, dup := seen[p.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate plugin name %q", p.Name)}
		}
		seen[p.Name] = struct{}{}
	}
	if !strings.Contains(c.Terminal, "{{cmd}}") {
		return &ValidationError{Path: "terminal", Err: fmt.Errorf("terminal must include {{cmd}}")}
	}
	switch c.PaletteBackend {
	case "auto", "rofi", "fuzzel", "dmenu", "wofi":
	default:
		return &ValidationError{Path: "palette", Err: fmt.Errorf("palette must be one of: auto, rofi, fuzzel, dmenu, wofi")}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("log.level must be one of: debug, info, warn, error")}
	}
	return nil
}

// StatePath returns the SQLite state database path, defaulting to
// $XDG_DATA_HOME/sparknova/state.db.
func (c *Config) StatePath() (string, error) {
	if strings.TrimSpace(c.StatePathRaw) != "" {
		return ExpandHome(c.StatePathRaw)
	}
	dir, err := runtimepath.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// LogPath returns the log file path, defaulting to
// $XDG_STATE_HOME/sparknova/sparknova.log.
func (c *Config) LogPath() (string, error) {
	if strings.TrimSpace(c.Log.File) != "" {
		return ExpandHome(c.Log.File)
	}
	dir, err := runtimepath.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sparknova.log"), nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
