package catalog

import (
	"context"
	"os"
	"path/filepath"

	"github.com/1broseidon/sparknova/internal/search"
)

// Commands lists executables found on $PATH. A name found in an earlier
// directory shadows later ones.
type Commands struct {
	// PathList overrides $PATH when non-empty.
	PathList string
}

func (c Commands) Name() string { return "commands" }

func (c Commands) Entries(ctx context.Context) ([]Entry, error) {
	pathList := c.PathList
	if pathList == "" {
		pathList = os.Getenv("PATH")
	}

	var entries []Entry
	seen := make(map[string]struct{})
	for _, dir := range filepath.SplitList(pathList) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if dir == "" {
			continue
		}
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range dirEntries {
			name := de.Name()
			if _, dup := seen[name]; dup {
				continue
			}
			full := filepath.Join(dir, name)
			// Stat follows symlinks, which is how most of /usr/bin looks.
			info, err := os.Stat(full)
			if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
				continue
			}
			seen[name] = struct{}{}
			entries = append(entries, Entry{
				Item: search.Item{
					ID:          StableID(search.TypeCommand, full),
					Title:       name,
					Description: full,
					Icon:        "utilities-terminal",
					Type:        search.TypeCommand,
					Path:        full,
				},
			})
		}
	}
	return entries, nil
}
