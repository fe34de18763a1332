// Package terminals finds a terminal emulator to run Terminal=true
// applications in.
package terminals

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/shlex"
)

// Emulator is an installed terminal emulator and how to run a command in it.
type Emulator struct {
	// Name is the executable looked up on $PATH.
	Name string
	// Template runs the {{cmd}} argument inside the emulator.
	Template string
}

// Known lists emulators in detection order.
var Known = []Emulator{
	{Name: "x-terminal-emulator", Template: "x-terminal-emulator -e {{cmd}}"},
	{Name: "kitty", Template: "kitty {{cmd}}"},
	{Name: "alacritty", Template: "alacritty -e {{cmd}}"},
	{Name: "foot", Template: "foot {{cmd}}"},
	{Name: "wezterm", Template: "wezterm start -- {{cmd}}"},
	{Name: "ghostty", Template: "ghostty -e {{cmd}}"},
	{Name: "gnome-terminal", Template: "gnome-terminal -- {{cmd}}"},
	{Name: "konsole", Template: "konsole -e {{cmd}}"},
	{Name: "xfce4-terminal", Template: "xfce4-terminal -x {{cmd}}"},
	{Name: "urxvt", Template: "urxvt -e {{cmd}}"},
	{Name: "xterm", Template: "xterm -e {{cmd}}"},
}

// Detector picks the terminal template to launch with. Lookups are cached.
type Detector struct {
	candidates []Emulator
	lookPath   func(string) (string, error)

	mu    sync.Mutex
	found map[string]bool
}

// NewDetector creates a detector over candidates, or Known when nil.
func NewDetector(candidates []Emulator) *Detector {
	if candidates == nil {
		candidates = Known
	}
	return &Detector{
		candidates: candidates,
		lookPath:   exec.LookPath,
		found:      make(map[string]bool),
	}
}

// Detect returns the preferred installed emulator. $TERMINAL wins when it
// names a known emulator that is installed.
func (d *Detector) Detect() (Emulator, bool) {
	if preferred := filepath.Base(strings.TrimSpace(os.Getenv("TERMINAL"))); preferred != "." && preferred != "" {
		for _, e := range d.candidates {
			if e.Name == preferred && d.installed(e.Name) {
				return e, true
			}
		}
	}
	for _, e := range d.candidates {
		if d.installed(e.Name) {
			return e, true
		}
	}
	return Emulator{}, false
}

// Resolve returns template when its program is installed, otherwise the
// template of the detected emulator. With nothing installed template is
// returned unchanged so launching reports the missing program.
func (d *Detector) Resolve(template string) string {
	parts, err := shlex.Split(template)
	if err == nil && len(parts) > 0 && d.installed(parts[0]) {
		return template
	}
	if e, ok := d.Detect(); ok {
		return e.Template
	}
	return template
}

func (d *Detector) installed(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ok, cached := d.found[name]; cached {
		return ok
	}
	_, err := d.lookPath(name)
	d.found[name] = err == nil
	return err == nil
}
