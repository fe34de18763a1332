// Package launch opens selected search results: applications, files,
// commands and plugin command lines.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/1broseidon/sparknova/internal/catalog"
	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/search"
)

// ErrEmptyCommand is returned when an item resolves to no command.
var ErrEmptyCommand = errors.New("empty command")

// Command is a resolved process to start.
type Command struct {
	Argv []string
	Dir  string
}

// Launcher starts processes for result items.
type Launcher struct {
	// Terminal wraps applications that declare Terminal=true. It must
	// contain {{cmd}}.
	Terminal string
	// Opener opens files. Defaults to xdg-open.
	Opener string
	// Notify enables a desktop notification when a launch fails.
	Notify bool
	Logger *slog.Logger

	// start is replaced in tests.
	start func(cmd Command) error
}

// Open resolves item to a command and starts it detached.
func (l *Launcher) Open(ctx context.Context, item search.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd, err := l.Resolve(item)
	if err != nil {
		l.failed(item, err)
		return err
	}

	start := l.start
	if start == nil {
		start = l.startDetached
	}
	if err := start(cmd); err != nil {
		err = fmt.Errorf("failed to launch %q: %w", item.Title, err)
		l.failed(item, err)
		return err
	}
	l.logger().Info("launched", "title", item.Title, "type", item.Type, "argv", cmd.Argv)
	return nil
}

// Resolve returns the command that opens item.
func (l *Launcher) Resolve(item search.Item) (Command, error) {
	if strings.TrimSpace(item.Path) == "" {
		return Command{}, fmt.Errorf("%s item %q has no path", item.Type, item.Title)
	}

	switch item.Type {
	case search.TypeApp:
		return l.resolveApp(item.Path)
	case search.TypeFile:
		opener := l.Opener
		if opener == "" {
			opener = "xdg-open"
		}
		return Command{Argv: []string{opener, item.Path}}, nil
	case search.TypeCommand:
		return Command{Argv: []string{item.Path}}, nil
	case search.TypePlugin:
		argv, err := shlex.Split(item.Path)
		if err != nil {
			return Command{}, fmt.Errorf("failed to parse plugin command: %w", err)
		}
		if len(argv) == 0 {
			return Command{}, ErrEmptyCommand
		}
		return Command{Argv: argv}, nil
	default:
		return Command{}, fmt.Errorf("cannot open item of unknown type %q", item.Type)
	}
}

func (l *Launcher) resolveApp(desktopPath string) (Command, error) {
	de, err := catalog.ParseDesktopFile(desktopPath)
	if err != nil {
		return Command{}, fmt.Errorf("failed to read application: %w", err)
	}
	argv, err := ExecArgs(de.Exec)
	if err != nil {
		return Command{}, err
	}
	if de.Terminal {
		term := l.Terminal
		if term == "" {
			term = "x-terminal-emulator -e {{cmd}}"
		}
		argv, err = wrapInTerminal(term, argv)
		if err != nil {
			return Command{}, err
		}
	}
	return Command{Argv: argv, Dir: de.Path}, nil
}

// fieldCodes are the desktop Exec field codes that expand to nothing when
// launching without files or URLs.
var fieldCodes = map[string]bool{
	"%f": true, "%F": true, "%u": true, "%U": true,
	"%i": true, "%c": true, "%k": true,
	"%d": true, "%D": true, "%n": true, "%N": true, "%v": true, "%m": true,
}

// ExecArgs splits a desktop Exec value into argv with field codes removed
// and "%%" unescaped.
func ExecArgs(exec string) ([]string, error) {
	parts, err := shlex.Split(exec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Exec %q: %w", exec, err)
	}

	argv := make([]string, 0, len(parts))
	for _, p := range parts {
		if fieldCodes[p] {
			continue
		}
		p = stripFieldCodes(p)
		if p == "" {
			continue
		}
		argv = append(argv, p)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

func stripFieldCodes(arg string) string {
	if !strings.Contains(arg, "%") {
		return arg
	}
	var b strings.Builder
	for i := 0; i < len(arg); i++ {
		if arg[i] != '%' || i+1 >= len(arg) {
			b.WriteByte(arg[i])
			continue
		}
		next := arg[i+1]
		i++
		if next == '%' {
			b.WriteByte('%')
		}
	}
	return b.String()
}

// wrapInTerminal renders a terminal template, replacing a {{cmd}} argument
// with argv.
func wrapInTerminal(template string, argv []string) ([]string, error) {
	parts, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse terminal template: %w", err)
	}
	out := make([]string, 0, len(parts)+len(argv))
	replaced := false
	for _, p := range parts {
		if p == "{{cmd}}" {
			out = append(out, argv...)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		return nil, fmt.Errorf("terminal template %q must include {{cmd}} as its own argument", template)
	}
	return out, nil
}

func (l *Launcher) startDetached(c Command) error {
	if len(c.Argv) == 0 {
		return ErrEmptyCommand
	}
	cmd := exec.Command(c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child without blocking the caller.
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger().Debug("launched process exited", "argv", c.Argv, "error", err)
		}
	}()
	return nil
}

func (l *Launcher) failed(item search.Item, err error) {
	l.logger().Warn("launch failed", "title", item.Title, "type", item.Type, "error", err)
	if l.Notify {
		notifyDesktop("Could not open "+item.Title, err.Error())
	}
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return logging.Discard()
	}
	return l.Logger
}

// notifyDesktop sends a desktop notification using notify-send (if available).
func notifyDesktop(summary, body string) {
	cmd := exec.Command("notify-send", "-a", "sparknova", "-i", "dialog-error", summary, body)
	_ = cmd.Start()
}
