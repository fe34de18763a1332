package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/1broseidon/sparknova/internal/search"
)

// maxFileEntries bounds a single Files scan.
const maxFileEntries = 20000

// Files lists files and directories below the configured roots. Entries whose
// name starts with a dot are skipped, along with everything below them.
type Files struct {
	Dirs []string
	// MaxDepth is the number of directory levels below a root to descend;
	// 0 lists only the root's children.
	MaxDepth int
}

func (f Files) Name() string { return "files" }

func (f Files) Entries(ctx context.Context) ([]Entry, error) {
	home, _ := os.UserHomeDir()

	var entries []Entry
	for _, root := range f.Dirs {
		root = expandHome(root, home)
		root = filepath.Clean(root)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if len(entries) >= maxFileEntries {
				return fs.SkipAll
			}

			entries = append(entries, fileEntry(path, d.IsDir(), home))

			if d.IsDir() && depth(root, path) > f.MaxDepth {
				return fs.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// depth returns how many levels path lies below root; root's children are 1.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func fileEntry(path string, isDir bool, home string) Entry {
	icon := "text-x-generic"
	if isDir {
		icon = "folder"
	}
	return Entry{
		Item: search.Item{
			ID:          StableID(search.TypeFile, path),
			Title:       filepath.Base(path),
			Description: abbreviateHome(filepath.Dir(path), home),
			Icon:        icon,
			Type:        search.TypeFile,
			Path:        path,
		},
	}
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func abbreviateHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}
