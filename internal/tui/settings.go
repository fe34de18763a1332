package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/1broseidon/sparknova/internal/config"
)

// settingsForm holds form-bound values (strings for huh, converted on submit).
type settingsForm struct {
	fHotkey         string
	fPalette        string
	fMaxResults     string
	fSearchDebounce string
	fBlurHideDelay  string
	fTerminal       string
	fLogLevel       string
	fFileDirs       string
	fApplications   bool
	fCommands       bool
}

func newSettingsForm(cfg *config.Config) *settingsForm {
	return &settingsForm{
		fHotkey:         cfg.Hotkey,
		fPalette:        cfg.PaletteBackend,
		fMaxResults:     strconv.Itoa(cfg.MaxResults),
		fSearchDebounce: cfg.SearchDebounce.String(),
		fBlurHideDelay:  cfg.BlurHideDelay.String(),
		fTerminal:       cfg.Terminal,
		fLogLevel:       cfg.Log.Level,
		fFileDirs:       strings.Join(cfg.Sources.Files.Dirs, ", "),
		fApplications:   cfg.Sources.Applications,
		fCommands:       cfg.Sources.Commands,
	}
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if d < 0 {
		return errors.New("must be >= 0")
	}
	return nil
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}
	if v <= 0 {
		return errors.New("must be > 0")
	}
	return nil
}

func (f *settingsForm) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("hotkey").
				Title("Hotkey").
				Description("X11 keybinding that toggles the launcher (empty disables)").
				Value(&f.fHotkey),

			huh.NewSelect[string]().
				Key("palette").
				Title("Palette").
				Description("Menu program used by 'sparknova pick'").
				Options(huh.NewOptions("auto", "rofi", "fuzzel", "wofi", "dmenu")...).
				Value(&f.fPalette),

			huh.NewInput().
				Key("max_results").
				Title("Max Results").
				Validate(validatePositiveInt).
				Value(&f.fMaxResults),

			huh.NewInput().
				Key("search_debounce").
				Title("Search Debounce").
				Description("Pause after the last keystroke before searching, e.g. 150ms").
				Validate(validateDuration).
				Value(&f.fSearchDebounce),

			huh.NewInput().
				Key("blur_hide_delay").
				Title("Blur Hide Delay").
				Description("Focus loss this soon after showing is ignored").
				Validate(validateDuration).
				Value(&f.fBlurHideDelay),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("applications").
				Title("Index applications").
				Value(&f.fApplications),

			huh.NewConfirm().
				Key("commands").
				Title("Index $PATH commands").
				Value(&f.fCommands),

			huh.NewInput().
				Key("files").
				Title("File Directories").
				Description("Comma separated, e.g. ~/Documents, ~/Downloads").
				Value(&f.fFileDirs),

			huh.NewInput().
				Key("terminal").
				Title("Terminal").
				Description("Runs terminal applications; {{cmd}} is the command").
				Validate(func(s string) error {
					if !strings.Contains(s, "{{cmd}}") {
						return errors.New("must include {{cmd}}")
					}
					return nil
				}).
				Value(&f.fTerminal),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&f.fLogLevel),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

// apply writes the form values into cfg. cfg is left untouched when the
// result does not validate.
func (f *settingsForm) apply(cfg *config.Config) error {
	next := *cfg

	next.Hotkey = strings.TrimSpace(f.fHotkey)
	next.PaletteBackend = f.fPalette
	next.Terminal = strings.TrimSpace(f.fTerminal)
	next.Log.Level = f.fLogLevel
	next.Sources.Applications = f.fApplications
	next.Sources.Commands = f.fCommands

	v, err := strconv.Atoi(strings.TrimSpace(f.fMaxResults))
	if err != nil {
		return fmt.Errorf("max_results: %w", err)
	}
	next.MaxResults = v
	if next.SearchDebounce, err = time.ParseDuration(strings.TrimSpace(f.fSearchDebounce)); err != nil {
		return fmt.Errorf("search_debounce: %w", err)
	}
	if next.BlurHideDelay, err = time.ParseDuration(strings.TrimSpace(f.fBlurHideDelay)); err != nil {
		return fmt.Errorf("blur_hide_delay: %w", err)
	}

	var dirs []string
	for _, d := range strings.Split(f.fFileDirs, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	next.Sources.Files.Dirs = dirs

	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// EditConfig shows the settings form for cfg and applies the answers. It
// reports false when the user aborted; cfg is then unchanged.
func EditConfig(ctx context.Context, cfg *config.Config) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return false, fmt.Errorf("settings require an interactive terminal (stdin/stdout must be TTYs)")
	}
	f := newSettingsForm(cfg)
	if err := f.build().RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("settings form failed: %w", err)
	}
	if err := f.apply(cfg); err != nil {
		return false, err
	}
	return true, nil
}
