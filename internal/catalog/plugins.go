package catalog

import (
	"context"
	"strings"

	"github.com/1broseidon/sparknova/internal/config"
	"github.com/1broseidon/sparknova/internal/search"
)

// QueryPlaceholder in a plugin argument is replaced with the query.
const QueryPlaceholder = "{query}"

// Plugins turns configured plugin commands into catalog entries.
type Plugins struct {
	Configs []config.PluginConfig
}

func (p Plugins) Name() string { return "plugins" }

func (p Plugins) Entries(ctx context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(p.Configs))
	for _, pc := range p.Configs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(pc.Name) == "" || strings.TrimSpace(pc.Command) == "" {
			continue
		}
		icon := pc.Icon
		if icon == "" {
			icon = "application-x-executable"
		}
		entries = append(entries, Entry{
			Item: search.Item{
				ID:          StableID(search.TypePlugin, pc.Name),
				Title:       pc.Name,
				Description: pc.Description,
				Icon:        icon,
				Type:        search.TypePlugin,
				Path:        CommandLine(pc.Command, pc.Args, ""),
			},
			Command: pc.Command,
			Args:    append([]string(nil), pc.Args...),
		})
	}
	return entries, nil
}

// Dynamic reports whether the entry takes the query as an argument.
func (e Entry) Dynamic() bool {
	for _, a := range e.Args {
		if strings.Contains(a, QueryPlaceholder) {
			return true
		}
	}
	return false
}

// ForQuery returns the plugin item to offer for query: the placeholder is
// substituted and the id is specific to the query.
func (e Entry) ForQuery(query string) search.Item {
	it := e.Item
	it.ID = StableID(search.TypePlugin, e.Item.Title+"\x00"+query)
	it.Path = CommandLine(e.Command, e.Args, query)
	if it.Description == "" {
		it.Description = query
	}
	return it
}

// CommandLine renders command and args as a shell-quoted line with the
// query placeholder substituted. The line round-trips through shlex.
func CommandLine(command string, args []string, query string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(command))
	for _, a := range args {
		parts = append(parts, shellQuote(strings.ReplaceAll(a, QueryPlaceholder, query)))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()*?[]#~!{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
