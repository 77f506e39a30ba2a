package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"selectree/pkg/ignore"
	"selectree/pkg/profile"
	"selectree/pkg/selection"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T, files ...string) *selection.Engine {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(rel), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := selection.New(root, selection.Options{
		Loader: ignore.Loader{Root: root},
		Logger: zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func labels(rows []Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, strings.Repeat(".", r.Depth)+r.Item.Label)
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestBuildRows_ExpandedOnly(t *testing.T) {
	e := newTestEngine(t, "src/a.go", "src/lib/b.go", "README.md")
	root := e.Root()

	got := labels(BuildRows(e, map[string]bool{}, false))
	if strings.Join(got, ",") != "src,README.md" {
		t.Errorf("collapsed rows = %v", got)
	}

	got = labels(BuildRows(e, map[string]bool{filepath.Join(root, "src"): true}, false))
	if strings.Join(got, ",") != "src,.lib,.a.go,README.md" {
		t.Errorf("expanded rows = %v", got)
	}

	got = labels(BuildRows(e, nil, true))
	if strings.Join(got, ",") != "src,.lib,..b.go,.a.go,README.md" {
		t.Errorf("expand-all rows = %v", got)
	}
}

func TestModel_ToggleAndExpand(t *testing.T) {
	e := newTestEngine(t, "src/a.go", "src/b.go", "README.md")
	m := New(e, nil, zaptest.NewLogger(t))

	m = press(m, "enter", "down", " ")
	if !e.IsChecked(filepath.Join(e.Root(), "src", "a.go")) {
		t.Fatalf("space on a.go did not toggle it; rows %v", labels(m.Rows()))
	}
	if m.Rows()[0].Item.State != selection.PartiallyChecked {
		t.Errorf("src row state = %v, want partial", m.Rows()[0].Item.State)
	}

	m = press(m, "left")
	if m.cursor != 0 {
		t.Errorf("left on a file should move to its parent, cursor = %d", m.cursor)
	}
	m = press(m, "left")
	if len(m.Rows()) != 2 {
		t.Errorf("left on an open directory should close it, rows %v", labels(m.Rows()))
	}
}

func TestModel_SearchThenSelectAll(t *testing.T) {
	e := newTestEngine(t, "src/a.ts", "src/a.js", "docs/readme.md")
	m := New(e, nil, nil)

	m = press(m, "/")
	m = typeText(m, "*.ts")
	m = press(m, "enter")
	if e.Query() != "*.ts" {
		t.Fatalf("query = %q", e.Query())
	}
	if got := strings.Join(labels(m.Rows()), ","); got != "src,.a.ts" {
		t.Errorf("filtered rows = %s", got)
	}

	m = press(m, "a")
	if got := e.CheckedFiles(); len(got) != 1 || got[0] != "src/a.ts" {
		t.Errorf("CheckedFiles = %v", got)
	}

	m = press(m, "esc")
	if e.Query() != "" {
		t.Error("esc should clear the filter")
	}
	m = press(m, "n")
	if len(e.CheckedItems()) != 0 {
		t.Error("n should clear the selection")
	}
}

func TestModel_SaveAndLoadProfile(t *testing.T) {
	e := newTestEngine(t, "a.go", "b.go")
	store := profile.NewFileStore(filepath.Join(t.TempDir(), "profiles.json"), nil)
	m := New(e, store, nil)

	m = press(m, " ")
	m = press(m, "s")
	m = typeText(m, "mine")
	m = press(m, "enter")
	if _, err := store.Load("mine"); err != nil {
		t.Fatalf("profile not saved: %v (status %q)", err, m.status)
	}

	m = press(m, "n", "o")
	m = typeText(m, "mine")
	m = press(m, "enter")
	if !e.IsChecked(filepath.Join(e.Root(), "a.go")) {
		t.Errorf("profile not applied (status %q)", m.status)
	}

	m = press(m, "o")
	m = typeText(m, "nope")
	m = press(m, "enter")
	if !strings.Contains(m.status, "nope") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_ConfirmAndQuit(t *testing.T) {
	e := newTestEngine(t, "a.go")
	m := New(e, nil, nil)

	next, cmd := m.Update(key("c"))
	if !next.(Model).Confirmed() || cmd == nil {
		t.Error("c should confirm and quit")
	}
	next, cmd = m.Update(key("q"))
	if next.(Model).Confirmed() || cmd == nil {
		t.Error("q should quit without confirming")
	}
}

func TestRenderRow_Truncates(t *testing.T) {
	r := Row{Item: selection.TreeItem{Label: strings.Repeat("x", 100), State: selection.Unchecked}}
	line := renderRow(r, 30)
	if !strings.Contains(line, "…") {
		t.Errorf("long label not truncated: %q", line)
	}
}
