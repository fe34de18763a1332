package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// runFunc executes a menu command with stdin and returns its stdout.
type runFunc func(ctx context.Context, name string, args []string, stdin string) (string, error)

type dmenuLikeBackend struct {
	command string
	kind    backendKind
	caps    Capabilities

	run runFunc
}

func newRofiBackend() *dmenuLikeBackend {
	return &dmenuLikeBackend{
		command: "rofi",
		kind:    kindRofi,
		caps: Capabilities{
			Icons:         true,
			Markup:        true,
			NonSelectable: true,
			IndexOutput:   true,
			MessageBar:    true,
		},
		run: runCommand,
	}
}

func newDmenuBackend() *dmenuLikeBackend {
	// dmenu has minimal features
	return &dmenuLikeBackend{command: "dmenu", kind: kindDmenu, run: runCommand}
}

func newWofiBackend() *dmenuLikeBackend {
	return &dmenuLikeBackend{
		command: "wofi",
		kind:    kindWofi,
		caps:    Capabilities{Icons: true, Markup: true},
		run:     runCommand,
	}
}

func newFuzzelBackend() *dmenuLikeBackend {
	return &dmenuLikeBackend{
		command: "fuzzel",
		kind:    kindFuzzel,
		caps:    Capabilities{Icons: true, IndexOutput: true},
		run:     runCommand,
	}
}

func (b *dmenuLikeBackend) Capabilities() Capabilities {
	return b.caps
}

// Choose shows items and returns the selected one.
func (b *dmenuLikeBackend) Choose(ctx context.Context, prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	displayItems := make([]Item, len(items))
	copy(displayItems, items)

	input, selectedRow := b.formatInput(displayItems)
	args := b.chooseArgs(prompt, message, selectedRow)

	selection, err := b.run(ctx, b.command, args, input)
	if err != nil {
		return Item{}, err
	}
	item, err := b.parseSelection(selection, displayItems)
	if err != nil {
		return Item{}, err
	}
	if item.IsHeader {
		return Item{}, ErrCancelled
	}
	return item, nil
}

// Prompt asks for free text. Selecting a suggestion returns it unchanged.
func (b *dmenuLikeBackend) Prompt(ctx context.Context, prompt string, suggestions []string) (string, error) {
	lines := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		if s = sanitizeLabel(s); s != "" {
			lines = append(lines, s)
		}
	}

	text, err := b.run(ctx, b.command, b.promptArgs(prompt), strings.Join(lines, "\n"))
	if err != nil {
		return "", err
	}
	return text, nil
}

func (b *dmenuLikeBackend) chooseArgs(prompt, message string, selectedRow int) []string {
	var args []string

	switch b.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		// Output only the index for robust selection parsing (labels may contain ':' or markup).
		args = append(args, "-format", "i", "-no-custom", "-matching", "fuzzy")
		if b.caps.Markup {
			args = append(args, "-markup-rows")
		}
		if b.caps.Icons {
			args = append(args, "-show-icons")
		}
		if selectedRow >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selectedRow))
		}
		if message != "" {
			args = append(args, "-mesg", message)
		}

	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	case kindWofi:
		args = []string{"--dmenu", "--allow-markup", "--allow-images"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}

	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}

	return args
}

// promptArgs prints the typed text or the chosen suggestion verbatim.
func (b *dmenuLikeBackend) promptArgs(prompt string) []string {
	switch b.kind {
	case kindRofi:
		return []string{"-dmenu", "-i", "-p", prompt, "-format", "s"}
	case kindFuzzel, kindWofi:
		return []string{"--dmenu", "--prompt", prompt}
	default:
		return []string{"-i", "-p", prompt}
	}
}

// formatInput renders the menu lines and returns the row to preselect, or -1.
func (b *dmenuLikeBackend) formatInput(items []Item) (string, int) {
	// Backends that match by visible text (dmenu/wofi) need label disambiguation.
	// Index-output backends (rofi/fuzzel) select by row index and do not.
	if !b.caps.IndexOutput {
		seen := make(map[string]int)
		for i := range items {
			if items[i].IsHeader {
				continue
			}
			key := sanitizeLabel(items[i].Label)
			if key == "" {
				continue
			}
			if count := seen[key]; count > 0 {
				items[i].Label = fmt.Sprintf("%s (%d)", key, count+1)
			}
			seen[key]++
		}
	}

	lines := make([]string, 0, len(items))
	firstSelectable, firstActive := -1, -1
	for i, item := range items {
		lines = append(lines, b.formatItem(item))
		if item.IsHeader {
			continue
		}
		if firstSelectable == -1 {
			firstSelectable = i
		}
		if item.IsActive && firstActive == -1 {
			firstActive = i
		}
	}

	selected := firstSelectable
	if firstActive != -1 {
		selected = firstActive
	}
	return strings.Join(lines, "\n"), selected
}

func (b *dmenuLikeBackend) formatItem(item Item) string {
	display := sanitizeLabel(item.Label)
	if b.caps.Markup {
		display = html.EscapeString(display)
		if item.IsHeader {
			display = "<b>" + display + "</b>"
		}
	}

	// Rofi row properties: a single NUL, then key\x1fvalue pairs also
	// delimited by \x1f.
	if b.kind != kindRofi {
		return display
	}

	var attrs []string
	if item.IsHeader && b.caps.NonSelectable {
		attrs = append(attrs, "nonselectable", "true")
	}
	if item.Icon != "" && b.caps.Icons {
		attrs = append(attrs, "icon", sanitizeRofiField(item.Icon))
	}
	if item.Info != "" {
		attrs = append(attrs, "info", sanitizeRofiField(item.Info))
	}
	if item.Meta != "" {
		attrs = append(attrs, "meta", sanitizeRofiField(item.Meta))
	}
	if len(attrs) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(attrs, "\x1f")
}

func (b *dmenuLikeBackend) parseSelection(selection string, items []Item) (Item, error) {
	if b.caps.IndexOutput {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if sanitizeLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

// runCommand runs a menu process. An empty selection or a cancel exit
// status yields ErrCancelled.
func runCommand(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if selection == "" && isCancelExit(err) {
			return "", ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %s", name, msg)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	if selection == "" {
		return "", ErrCancelled
	}
	return selection, nil
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeRofiField(value string) string {
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	return sanitizeLabel(value)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// Rofi/dmenu/wofi typically use 1 for "no selection" and 130 for Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
