package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/sparknova/internal/config"
)

func TestSettingsForm_RoundTripsDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	before := *cfg

	require.NoError(t, newSettingsForm(cfg).apply(cfg))
	require.Equal(t, before.Hotkey, cfg.Hotkey)
	require.Equal(t, before.MaxResults, cfg.MaxResults)
	require.Equal(t, before.SearchDebounce, cfg.SearchDebounce)
	require.Equal(t, before.Terminal, cfg.Terminal)
	require.Empty(t, cfg.Sources.Files.Dirs)
}

func TestSettingsForm_Apply(t *testing.T) {
	cfg := config.DefaultConfig()
	f := newSettingsForm(cfg)
	f.fHotkey = " Mod4-space "
	f.fPalette = "fuzzel"
	f.fMaxResults = "20"
	f.fSearchDebounce = "80ms"
	f.fFileDirs = "~/Documents, ,~/Downloads"
	f.fCommands = false

	require.NoError(t, f.apply(cfg))
	require.Equal(t, "Mod4-space", cfg.Hotkey)
	require.Equal(t, "fuzzel", cfg.PaletteBackend)
	require.Equal(t, 20, cfg.MaxResults)
	require.Equal(t, 80*time.Millisecond, cfg.SearchDebounce)
	require.Equal(t, []string{"~/Documents", "~/Downloads"}, cfg.Sources.Files.Dirs)
	require.False(t, cfg.Sources.Commands)
}

func TestSettingsForm_InvalidLeavesConfigUntouched(t *testing.T) {
	cases := []struct {
		name string
		edit func(f *settingsForm)
	}{
		{"max results", func(f *settingsForm) { f.fMaxResults = "lots" }},
		{"zero max results", func(f *settingsForm) { f.fMaxResults = "0" }},
		{"debounce", func(f *settingsForm) { f.fSearchDebounce = "soon" }},
		{"terminal", func(f *settingsForm) { f.fTerminal = "xterm -e" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			f := newSettingsForm(cfg)
			f.fHotkey = "Mod4-space"
			tc.edit(f)

			require.Error(t, f.apply(cfg))
			require.Equal(t, config.DefaultHotkey, cfg.Hotkey)
		})
	}
}

func TestValidators(t *testing.T) {
	require.NoError(t, validateDuration("150ms"))
	require.Error(t, validateDuration("-1s"))
	require.Error(t, validateDuration("x"))
	require.NoError(t, validatePositiveInt("3"))
	require.Error(t, validatePositiveInt("-3"))
	require.Error(t, validatePositiveInt(""))
}
