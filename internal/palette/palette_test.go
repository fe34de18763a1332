package palette

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/sparknova/internal/search"
)

func TestRofiFormatItem_UsesSingleNullSeparator(t *testing.T) {
	b := newRofiBackend()

	out := b.formatItem(Item{
		Label:    "Header",
		IsHeader: true,
		Icon:     "folder",
		Info:     "info",
		Meta:     "meta",
	})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.Contains(out, "<b>Header</b>\x00nonselectable\x1ftrue") {
		t.Fatalf("expected bold nonselectable header, got %q", out)
	}
	if !strings.Contains(out, "icon\x1ffolder") || !strings.Contains(out, "info\x1finfo") || !strings.Contains(out, "meta\x1fmeta") {
		t.Fatalf("expected icon/info/meta attributes, got %q", out)
	}
}

func TestRofiFormatItem_EscapesMarkup(t *testing.T) {
	out := newRofiBackend().formatItem(Item{Label: "Tom & <Jerry>"})
	if out != "Tom &amp; &lt;Jerry&gt;" {
		t.Fatalf("expected escaped label, got %q", out)
	}
}

func TestRofiChooseArgs(t *testing.T) {
	b := newRofiBackend()

	_, selected := b.formatInput([]Item{
		{Label: "Apps", IsHeader: true},
		{Label: "a"},
		{Label: "b", IsActive: true},
	})
	if selected != 2 {
		t.Fatalf("expected active row 2 preselected, got %d", selected)
	}
	args := b.chooseArgs("prompt", "message", selected)

	for _, pair := range [][2]string{{"-format", "i"}, {"-selected-row", "2"}, {"-mesg", "message"}, {"-p", "prompt"}} {
		if !containsArgs(args, pair[0], pair[1]) {
			t.Fatalf("expected %s %s in args, got %v", pair[0], pair[1], args)
		}
	}
	if !containsArg(args, "-no-custom") {
		t.Fatalf("expected -no-custom in args, got %v", args)
	}
}

func TestRofiPromptArgs_AllowCustomText(t *testing.T) {
	args := newRofiBackend().promptArgs("sparknova")
	if containsArg(args, "-no-custom") {
		t.Fatalf("prompt must accept typed text, got %v", args)
	}
	if !containsArgs(args, "-format", "s") {
		t.Fatalf("expected -format s in args, got %v", args)
	}
}

func TestParseSelection(t *testing.T) {
	items := []Item{
		{Label: "a", Info: "a"},
		{Label: "b", Info: "b"},
	}

	got, err := newRofiBackend().parseSelection("1", items)
	if err != nil || got.Info != "b" {
		t.Fatalf("rofi index selection = %+v, %v", got, err)
	}
	if _, err := newFuzzelBackend().parseSelection("5", items); err == nil {
		t.Fatal("expected out of range error")
	}
	got, err = newDmenuBackend().parseSelection("a", items)
	if err != nil || got.Info != "a" {
		t.Fatalf("dmenu label selection = %+v, %v", got, err)
	}
	if _, err := newDmenuBackend().parseSelection("zzz", items); err == nil {
		t.Fatal("expected unknown selection error")
	}
}

func TestFormatInput_DisambiguatesDuplicateLabels(t *testing.T) {
	b := newDmenuBackend()
	items := []Item{
		{Label: "Dup", Info: "a"},
		{Label: "Dup", Info: "b"},
	}

	_, _ = b.formatInput(items)
	if items[0].Label != "Dup" {
		t.Fatalf("expected first label unchanged, got %q", items[0].Label)
	}
	if items[1].Label != "Dup (2)" {
		t.Fatalf("expected second label disambiguated, got %q", items[1].Label)
	}
}

func TestFormatInput_IndexBackendsDoNotDisambiguateDuplicateLabels(t *testing.T) {
	b := newRofiBackend()
	items := []Item{
		{Label: "Dup", Info: "a"},
		{Label: "Dup", Info: "b"},
	}

	_, _ = b.formatInput(items)
	if items[0].Label != "Dup" || items[1].Label != "Dup" {
		t.Fatalf("expected labels unchanged for index backend, got %#v", items)
	}
}

func TestChoose_UsesRunner(t *testing.T) {
	b := newDmenuBackend()
	var gotStdin string
	b.run = func(_ context.Context, name string, args []string, stdin string) (string, error) {
		if name != "dmenu" {
			t.Fatalf("unexpected command %q", name)
		}
		gotStdin = stdin
		return "Dup (2)", nil
	}

	item, err := b.Choose(context.Background(), "p", []Item{{Label: "Dup", Info: "a"}, {Label: "Dup", Info: "b"}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Info != "b" {
		t.Fatalf("expected second item, got %+v", item)
	}
	if gotStdin != "Dup\nDup (2)" {
		t.Fatalf("unexpected stdin %q", gotStdin)
	}
}

func TestNewBackend_UnknownName(t *testing.T) {
	if _, err := NewBackend("bemenu"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

type fakeBackend struct {
	prompted string
	chosen   int
	shown    []Item
	err      error
}

func (f *fakeBackend) Choose(_ context.Context, _ string, items []Item, _ string) (Item, error) {
	if f.err != nil {
		return Item{}, f.err
	}
	f.shown = items
	return items[f.chosen], nil
}

func (f *fakeBackend) Prompt(context.Context, string, []string) (string, error) {
	if f.prompted == "" {
		return "", ErrCancelled
	}
	return f.prompted, nil
}

func (f *fakeBackend) Capabilities() Capabilities { return Capabilities{} }

type fakeSource struct {
	history []string
	results []search.Item
	queries []string
}

func (s *fakeSource) Search(_ context.Context, query string) ([]search.Item, error) {
	s.queries = append(s.queries, query)
	return s.results, nil
}

func (s *fakeSource) History(context.Context) ([]string, error) {
	return s.history, nil
}

type fakeOpener struct {
	opened []search.Item
}

func (o *fakeOpener) Open(_ context.Context, item search.Item) error {
	o.opened = append(o.opened, item)
	return nil
}

var pickResults = []search.Item{
	{ID: "1", Title: "Notes", Type: search.TypeApp, Path: "/apps/notes.desktop"},
	{ID: "2", Title: "notes.md", Description: "~/docs", Type: search.TypeFile, Path: "/home/u/docs/notes.md"},
}

func TestPicker_WithQuery(t *testing.T) {
	backend := &fakeBackend{chosen: 1}
	source := &fakeSource{results: pickResults}
	opener := &fakeOpener{}

	item, err := (&Picker{Backend: backend, Source: source, Opener: opener}).Pick(context.Background(), " notes ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "2" || len(opener.opened) != 1 || opener.opened[0].ID != "2" {
		t.Fatalf("expected notes.md opened, got %+v / %+v", item, opener.opened)
	}
	if source.queries[0] != "notes" {
		t.Fatalf("expected trimmed query, got %q", source.queries[0])
	}
	if backend.shown[1].Label != "[file] notes.md  ~/docs" {
		t.Fatalf("unexpected label %q", backend.shown[1].Label)
	}
}

func TestPicker_PromptsWhenQueryEmpty(t *testing.T) {
	backend := &fakeBackend{prompted: "notes"}
	source := &fakeSource{history: []string{"notes"}, results: pickResults}
	opener := &fakeOpener{}

	if _, err := (&Picker{Backend: backend, Source: source, Opener: opener}).Pick(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.queries) != 1 || source.queries[0] != "notes" {
		t.Fatalf("expected search for prompted query, got %v", source.queries)
	}
}

func TestPicker_Cancelled(t *testing.T) {
	source := &fakeSource{results: pickResults}
	opener := &fakeOpener{}

	_, err := (&Picker{Backend: &fakeBackend{}, Source: source, Opener: opener}).Pick(context.Background(), "")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	_, err = (&Picker{Backend: &fakeBackend{err: ErrCancelled}, Source: source, Opener: opener}).Pick(context.Background(), "x")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if len(opener.opened) != 0 {
		t.Fatalf("nothing should be opened, got %v", opener.opened)
	}
}

func TestPicker_NoResults(t *testing.T) {
	_, err := (&Picker{Backend: &fakeBackend{}, Source: &fakeSource{}, Opener: &fakeOpener{}}).Pick(context.Background(), "zzz")
	if err == nil {
		t.Fatal("expected error for empty results")
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func containsArgs(args []string, a string, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
