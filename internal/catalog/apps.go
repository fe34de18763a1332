package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/1broseidon/sparknova/internal/search"
)

// DesktopEntry holds the [Desktop Entry] keys the launcher uses.
type DesktopEntry struct {
	Type        string
	Name        string
	GenericName string
	Comment     string
	Icon        string
	Exec        string
	Path        string
	Keywords    []string
	Terminal    bool
	NoDisplay   bool
	Hidden      bool
}

// Launchable reports whether the entry should be offered as an application.
func (d DesktopEntry) Launchable() bool {
	return d.Type == "Application" && d.Name != "" && d.Exec != "" && !d.NoDisplay && !d.Hidden
}

// ParseDesktopFile reads a .desktop file.
func ParseDesktopFile(path string) (DesktopEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return DesktopEntry{}, err
	}
	defer f.Close()

	entry, err := ParseDesktopEntry(f)
	if err != nil {
		return DesktopEntry{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entry, nil
}

// ParseDesktopEntry reads the [Desktop Entry] group of a desktop file.
// Localized keys (Name[de]) are ignored in favour of the untranslated ones.
func ParseDesktopEntry(r io.Reader) (DesktopEntry, error) {
	var entry DesktopEntry
	inGroup := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inGroup = line == "[Desktop Entry]"
			continue
		}
		if !inGroup {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Type":
			entry.Type = value
		case "Name":
			entry.Name = unescapeDesktopValue(value)
		case "GenericName":
			entry.GenericName = unescapeDesktopValue(value)
		case "Comment":
			entry.Comment = unescapeDesktopValue(value)
		case "Icon":
			entry.Icon = value
		case "Exec":
			entry.Exec = value
		case "Path":
			entry.Path = value
		case "Keywords":
			entry.Keywords = splitDesktopList(value)
		case "Terminal":
			entry.Terminal = value == "true"
		case "NoDisplay":
			entry.NoDisplay = value == "true"
		case "Hidden":
			entry.Hidden = value == "true"
		}
	}
	if err := sc.Err(); err != nil {
		return DesktopEntry{}, err
	}
	return entry, nil
}

func unescapeDesktopValue(v string) string {
	r := strings.NewReplacer(`\s`, " ", `\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, `\`)
	return r.Replace(v)
}

func splitDesktopList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, unescapeDesktopValue(part))
		}
	}
	return out
}

// DefaultApplicationDirs returns the XDG application directories in
// precedence order: $XDG_DATA_HOME first, then $XDG_DATA_DIRS.
func DefaultApplicationDirs() []string {
	var dirs []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range filepath.SplitList(dataDirs) {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

// Applications lists desktop applications from .desktop files.
type Applications struct {
	// Dirs are searched in order; a desktop id found in an earlier directory
	// shadows later ones. Empty means DefaultApplicationDirs.
	Dirs []string
}

func (a Applications) Name() string { return "applications" }

func (a Applications) Entries(ctx context.Context) ([]Entry, error) {
	dirs := a.Dirs
	if len(dirs) == 0 {
		dirs = DefaultApplicationDirs()
	}

	var entries []Entry
	seen := make(map[string]struct{})
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			desktopID := strings.ReplaceAll(rel, string(filepath.Separator), "-")
			if _, dup := seen[desktopID]; dup {
				return nil
			}
			// A hidden entry in a higher-precedence dir still shadows the id.
			seen[desktopID] = struct{}{}

			de, err := ParseDesktopFile(path)
			if err != nil || !de.Launchable() {
				return nil
			}
			entries = append(entries, applicationEntry(path, de))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func applicationEntry(path string, de DesktopEntry) Entry {
	description := de.Comment
	if description == "" {
		description = de.GenericName
	}
	keywords := append([]string(nil), de.Keywords...)
	if de.GenericName != "" {
		keywords = append(keywords, de.GenericName)
	}
	return Entry{
		Item: search.Item{
			ID:          StableID(search.TypeApp, path),
			Title:       de.Name,
			Description: description,
			Icon:        de.Icon,
			Type:        search.TypeApp,
			Path:        path,
		},
		Keywords: keywords,
	}
}
