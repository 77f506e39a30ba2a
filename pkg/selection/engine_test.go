package selection

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"selectree/pkg/cache"
	"selectree/pkg/ignore"
)

func TestToggle_LeafTwiceRestoresState(t *testing.T) {
	root := buildTree(t, map[string]string{"a.txt": "a"})
	e := newEngine(t, root, staticLoader{})
	file := File(p(root, "a.txt"))

	e.Toggle(file)
	if !e.IsChecked(file.Path) {
		t.Fatal("first toggle should check the file")
	}
	e.Toggle(file)
	if e.IsChecked(file.Path) {
		t.Fatal("second toggle should restore the unchecked state")
	}
}

func TestToggle_DirectoryPropagatesToEligibleDescendants(t *testing.T) {
	root := buildTree(t, map[string]string{
		"D/a.txt":     "a",
		"D/b.txt":     "b",
		"D/c.txt":     "c",
		"D/sub/d.txt": "d",
	})
	e := newEngine(t, root, staticLoader{patterns: []string{"c.txt"}})

	e.Toggle(Directory(p(root, "D")))

	for _, rel := range []string{"D/a.txt", "D/b.txt", "D/sub", "D/sub/d.txt"} {
		if !e.IsChecked(p(root, rel)) {
			t.Errorf("%s should be checked", rel)
		}
	}
	if e.IsChecked(p(root, "D/c.txt")) {
		t.Error("excluded file must be left untouched")
	}
	if got := e.DirectoryState(p(root, "D")); got != cache.All {
		t.Errorf("DirectoryState(D) = %v, want all", got)
	}

	e.Toggle(Directory(p(root, "D")))
	if got := e.DirectoryState(p(root, "D")); got != cache.None {
		t.Errorf("after second toggle DirectoryState(D) = %v, want none", got)
	}
	if e.IsChecked(p(root, "D/sub/d.txt")) {
		t.Error("second toggle should uncheck descendants")
	}
}

func TestToggle_FullySelectedByChildrenUnchecks(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "D/b.txt": "b"})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(File(p(root, "D/a.txt")))
	e.Toggle(File(p(root, "D/b.txt")))
	if got := e.DirectoryState(p(root, "D")); got != cache.All {
		t.Fatalf("DirectoryState(D) = %v, want all", got)
	}

	e.Toggle(Directory(p(root, "D")))
	if got := e.DirectoryState(p(root, "D")); got != cache.None {
		t.Errorf("toggling a fully selected directory should clear it, got %v", got)
	}
}

func TestDirectoryState_Partial(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "D/b.txt": "b"})
	e := newEngine(t, root, staticLoader{})

	e.SetChecked(p(root, "D/a.txt"), true, true)

	if got := e.DirectoryState(p(root, "D")); got != cache.Partial {
		t.Errorf("DirectoryState(D) = %v, want partial", got)
	}
	if got := e.DirectoryState(root); got != cache.Partial {
		t.Errorf("partial child must make the root partial, got %v", got)
	}
}

func TestDirectoryState_InvalidatedAfterSetChecked(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "D/b.txt": "b"})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(Directory(p(root, "D")))
	if got := e.DirectoryState(p(root, "D")); got != cache.All {
		t.Fatalf("DirectoryState(D) = %v, want all", got)
	}
	if got := e.DirectoryState(root); got != cache.All {
		t.Fatalf("DirectoryState(root) = %v, want all", got)
	}

	e.SetChecked(p(root, "D/a.txt"), false, true)

	if got := e.DirectoryState(p(root, "D")); got != cache.Partial {
		t.Errorf("stale verdict served: DirectoryState(D) = %v, want partial", got)
	}
	if got := e.DirectoryState(root); got != cache.Partial {
		t.Errorf("ancestor not invalidated: DirectoryState(root) = %v, want partial", got)
	}
}

func TestSelectAll_SkipsOversizedFiles(t *testing.T) {
	root := buildTree(t, map[string]string{
		"D/small.txt": "tiny",
		"D/big.txt":   strings.Repeat("x", 64),
	})
	e := newEngine(t, root, staticLoader{max: 16})

	e.SelectAll()

	for _, id := range e.CheckedItems() {
		if id == p(root, "D/big.txt") {
			t.Fatal("oversized file must never be checked")
		}
	}
	st := e.DirectoryStateDetail(p(root, "D"))
	if st.Total != 1 || st.Verdict != cache.All {
		t.Errorf("DirectoryStateDetail(D) = %+v, want 1 eligible child fully selected", st)
	}
}

func TestUncheckAll_RestoreFromSnapshot(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a.txt":     "a",
		"D/b.txt":   "b",
		"D/E/c.txt": "c",
		"F/d.txt":   "d",
	})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(Directory(p(root, "D")))
	e.Toggle(File(p(root, "a.txt")))
	saved := e.CheckedItems()

	e.UncheckAll()
	if len(e.CheckedItems()) != 0 {
		t.Fatal("UncheckAll should clear the selection")
	}

	for _, id := range saved {
		e.SetChecked(id, true, false)
	}
	if got := e.CheckedItems(); !reflect.DeepEqual(got, saved) {
		t.Errorf("restored %v, want %v", got, saved)
	}
	if got := e.DirectoryState(p(root, "D")); got != cache.All {
		t.Errorf("restored DirectoryState(D) = %v, want all", got)
	}
}

func TestToggle_SymlinkCycleTerminates(t *testing.T) {
	root := buildTree(t, map[string]string{"a/f.txt": "f", "b.txt": "b"})
	if err := os.Symlink(p(root, "a"), p(root, "a/loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	e := newEngine(t, root, staticLoader{})

	done := make(chan struct{})
	go func() {
		e.Toggle(Directory(root))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("toggle on a cyclic tree did not return")
	}

	for _, rel := range []string{"a", "a/f.txt", "b.txt"} {
		if !e.IsChecked(p(root, rel)) {
			t.Errorf("%s should be checked", rel)
		}
	}
	if got := e.DirectoryState(root); got != cache.All {
		t.Errorf("DirectoryState(root) = %v, want all", got)
	}
}

func TestToggle_DepthGuardStopsDescending(t *testing.T) {
	deep := strings.Repeat("d/", 60) + "deep.txt"
	root := buildTree(t, map[string]string{"d/top.txt": "t", deep: "x"})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(Directory(root))

	if !e.IsChecked(p(root, "d/top.txt")) {
		t.Error("shallow file should be checked")
	}
	if e.IsChecked(p(root, deep)) {
		t.Error("file beyond the depth guard should not be reached")
	}
	if got := e.DirectoryState(root); got != cache.All {
		t.Fatalf("DirectoryState(root) after toggle = %v, want all", got)
	}

	e.Toggle(Directory(root))
	if e.IsChecked(p(root, "d/top.txt")) {
		t.Error("second toggle should uncheck the shallow file")
	}
	if got := e.DirectoryState(root); got != cache.None {
		t.Errorf("DirectoryState(root) after second toggle = %v, want none", got)
	}
}

func TestToggle_DeepSubdirectoryAgreesWithRoot(t *testing.T) {
	deep := strings.Repeat("d/", 60) + "deep.txt"
	root := buildTree(t, map[string]string{deep: "x"})
	e := newEngine(t, root, staticLoader{})

	sub := p(root, strings.Repeat("d/", 10))
	e.Toggle(Directory(sub))
	if got := e.DirectoryState(sub); got != cache.All {
		t.Errorf("DirectoryState(sub) = %v, want all", got)
	}
	if got := e.DirectoryState(root); got != cache.All {
		t.Errorf("DirectoryState(root) = %v, want all", got)
	}

	e.Toggle(Directory(root))
	if got := e.DirectoryState(sub); got != cache.None {
		t.Errorf("DirectoryState(sub) after unchecking root = %v, want none", got)
	}
}

func TestToggle_SymlinkAliasSelectsBothPaths(t *testing.T) {
	root := buildTree(t, map[string]string{"real/f.txt": "f"})
	if err := os.Symlink(p(root, "real"), p(root, "alias")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	e := newEngine(t, root, staticLoader{})

	e.Toggle(Directory(root))
	for _, dir := range []string{"real", "alias"} {
		if got := e.DirectoryState(p(root, dir)); got != cache.All {
			t.Errorf("DirectoryState(%s) = %v, want all", dir, got)
		}
	}
	if got := e.DirectoryState(root); got != cache.All {
		t.Fatalf("DirectoryState(root) = %v, want all", got)
	}
	want := []string{"alias/f.txt", "real/f.txt"}
	if got := e.CheckedFiles(); !slices.Equal(got, want) {
		t.Errorf("CheckedFiles() = %v, want %v", got, want)
	}

	e.Toggle(Directory(root))
	if got := e.DirectoryState(root); got != cache.None {
		t.Errorf("DirectoryState(root) after second toggle = %v, want none", got)
	}
	if got := e.CheckedItems(); len(got) != 0 {
		t.Errorf("CheckedItems() after second toggle = %v, want empty", got)
	}
}

func TestToggle_DirectoryTwiceRestoresState(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "D/sub/b.txt": "b", "c.txt": "c"})
	e := newEngine(t, root, staticLoader{})
	e.SetChecked(p(root, "c.txt"), true, false)

	e.Toggle(Directory(p(root, "D")))
	e.Toggle(Directory(p(root, "D")))

	if got := e.CheckedRelative(); !slices.Equal(got, []string{"c.txt"}) {
		t.Errorf("CheckedRelative() = %v, want [c.txt]", got)
	}
	if got := e.DirectoryState(root); got != cache.Partial {
		t.Errorf("DirectoryState(root) = %v, want partial", got)
	}
}

func TestSelectAllMatching_ChecksMatchesAndContainers(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/a.ts":       "ts",
		"src/a.js":       "js",
		"docs/readme.md": "md",
	})
	e := newEngine(t, root, staticLoader{})

	e.SelectAllMatching("*.ts")

	want := []string{p(root, "src"), p(root, "src/a.ts")}
	if got := e.CheckedItems(); !reflect.DeepEqual(got, want) {
		t.Errorf("CheckedItems = %v, want %v", got, want)
	}
}

func TestSelectAll_UsesActiveQuery(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/a.ts":       "ts",
		"src/a.js":       "js",
		"docs/readme.md": "md",
	})
	e := newEngine(t, root, staticLoader{})

	e.SetQuery("*.TS")
	e.SelectAll()

	if !e.IsChecked(p(root, "src/a.ts")) || e.IsChecked(p(root, "src/a.js")) || e.IsChecked(p(root, "docs")) {
		t.Errorf("unexpected selection %v", e.CheckedItems())
	}
	if got := e.CheckedFiles(); !reflect.DeepEqual(got, []string{"src/a.ts"}) {
		t.Errorf("CheckedFiles = %v", got)
	}
}

func TestChildren_FollowsQuery(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/a.ts":       "ts",
		"docs/readme.md": "md",
		"top.go":         "go",
		"ignored.log":    "log",
	})
	e := newEngine(t, root, staticLoader{patterns: []string{"*.log"}})

	names := func(nodes []Node) []string {
		var out []string
		for _, n := range nodes {
			out = append(out, n.Name())
		}
		return out
	}

	if got := names(e.Children(nil)); !reflect.DeepEqual(got, []string{"docs", "src", "top.go"}) {
		t.Errorf("unfiltered children = %v", got)
	}

	e.SetQuery("*.ts")
	if got := names(e.Children(nil)); !reflect.DeepEqual(got, []string{"src"}) {
		t.Errorf("children for *.ts = %v", got)
	}

	e.SetQuery("readme")
	if got := names(e.Children(nil)); !reflect.DeepEqual(got, []string{"docs"}) {
		t.Errorf("children for readme = %v, filtered cache not dropped on query change", got)
	}

	e.SetQuery("src/")
	if got := names(e.Children(nil)); !reflect.DeepEqual(got, []string{"src"}) {
		t.Errorf("children for path query = %v", got)
	}

	e.SetQuery("")
	if e.Query() != "" {
		t.Errorf("Query = %q after clearing", e.Query())
	}
	if got := e.Children(&Node{Kind: KindFile, Path: p(root, "top.go")}); got != nil {
		t.Errorf("files have no children, got %v", got)
	}
}

func TestSelectAll_EnumerationErrorIsContained(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/a.go":       "a",
		"docs/readme.md": "md",
	})
	broken := failingFS{fail: map[string]bool{p(root, "src"): true}}
	e := newEngine(t, root, staticLoader{}, func(o *Options) { o.FS = broken })

	e.SelectAll()

	if !e.IsChecked(p(root, "docs/readme.md")) {
		t.Error("sibling subtree should still be selected")
	}
	if e.IsChecked(p(root, "src/a.go")) {
		t.Error("unreadable directory contributes no children")
	}
	if got := e.DirectoryState(p(root, "src")); got != cache.None {
		t.Errorf("unreadable directory state = %v, want none", got)
	}
}

func TestInvalidPathsReturnSafeDefaults(t *testing.T) {
	root := buildTree(t, map[string]string{"a.txt": "a"})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(File(""))
	e.Toggle(Directory("  "))
	e.SetChecked("", true, true)
	e.Invalidate("")

	if got := e.DirectoryState(""); got != cache.None {
		t.Errorf("DirectoryState(\"\") = %v", got)
	}
	if got := e.Children(&Node{Kind: KindDirectory}); got != nil {
		t.Errorf("Children(empty) = %v", got)
	}
	if item := e.TreeItem(File("")); item.State != Unchecked || item.Label != "" {
		t.Errorf("TreeItem(empty) = %+v", item)
	}
	if got := e.DirectoryState(p(root, "missing")); got != cache.None {
		t.Errorf("DirectoryState(missing) = %v", got)
	}
	if e.store.Len() != 0 {
		t.Error("invalid calls must not write the store")
	}
}

func TestToggle_IneligibleFileIgnored(t *testing.T) {
	root := buildTree(t, map[string]string{"x.log": "l"})
	e := newEngine(t, root, staticLoader{patterns: []string{"*.log"}})

	e.Toggle(File(p(root, "x.log")))
	if e.IsChecked(p(root, "x.log")) {
		t.Error("excluded file must not become checked")
	}
}

func TestToggle_ExcludedDirectoryIgnored(t *testing.T) {
	root := buildTree(t, map[string]string{"gen/out.txt": "o", "a.txt": "a"})
	e := newEngine(t, root, staticLoader{patterns: []string{"gen/"}})

	e.Toggle(Directory(p(root, "gen")))
	if e.IsChecked(p(root, "gen")) {
		t.Error("excluded directory must not become checked")
	}

	e.SetChecked(p(root, "gen"), true, false)
	e.SetChecked(p(root, "a.txt"), true, false)
	if got := e.CheckedRelative(); !slices.Equal(got, []string{"a.txt"}) {
		t.Errorf("CheckedRelative() = %v, want [a.txt]", got)
	}
}

type mutableLoader struct {
	mu       sync.Mutex
	patterns []string
}

func (l *mutableLoader) set(patterns ...string) {
	l.mu.Lock()
	l.patterns = patterns
	l.mu.Unlock()
}

func (l *mutableLoader) LoadConfig() ignore.Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return staticLoader{patterns: l.patterns}.LoadConfig()
}

func TestRefresh_ClearsSelectionAndReloadsRules(t *testing.T) {
	root := buildTree(t, map[string]string{"a.txt": "a", "b.md": "b"})
	loader := &mutableLoader{}
	e := newEngine(t, root, loader)

	e.SelectAll()
	if len(e.CheckedItems()) != 2 {
		t.Fatalf("CheckedItems = %v", e.CheckedItems())
	}

	loader.set("*.md")
	e.Refresh()

	if len(e.CheckedItems()) != 0 {
		t.Error("refresh should clear the selection")
	}
	if got := e.Children(nil); len(got) != 1 || got[0].Name() != "a.txt" {
		t.Errorf("reloaded rules not applied, children = %v", got)
	}
}

func TestReloadRules_KeepsSelection(t *testing.T) {
	root := buildTree(t, map[string]string{"a.txt": "a"})
	loader := &mutableLoader{}
	e := newEngine(t, root, loader)

	e.Toggle(File(p(root, "a.txt")))
	e.ReloadRules()
	e.SoftUpdate()

	if !e.IsChecked(p(root, "a.txt")) {
		t.Error("reloading rules must keep the selection")
	}
}

func TestCheckedFiles_OmitsDirectoriesAndOutsiders(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "b.txt": "b"})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(Directory(p(root, "D")))
	e.SetChecked(p(root, "b.txt"), true, false)
	e.SetChecked(filepath.Join(filepath.Dir(root), "elsewhere.txt"), true, false)

	if got := e.CheckedFiles(); !reflect.DeepEqual(got, []string{"D/a.txt", "b.txt"}) {
		t.Errorf("CheckedFiles = %v", got)
	}
	if got := e.CheckedRelative(); !reflect.DeepEqual(got, []string{"D", "D/a.txt", "b.txt"}) {
		t.Errorf("CheckedRelative = %v", got)
	}
}

func TestTreeItem_ReflectsState(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "D/b.txt": "b"})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(File(p(root, "D/a.txt")))

	dir := e.TreeItem(Directory(p(root, "D")))
	if dir.State != PartiallyChecked || !dir.Collapsible || dir.RelPath != "D" {
		t.Errorf("directory item = %+v", dir)
	}
	file := e.TreeItem(File(p(root, "D/a.txt")))
	if file.State != Checked || file.Collapsible || file.Label != "a.txt" {
		t.Errorf("file item = %+v", file)
	}
}

func TestEmptyDirectoryCountsByItsBit(t *testing.T) {
	root := buildTree(t, map[string]string{"D/a.txt": "a", "D/empty/": ""})
	e := newEngine(t, root, staticLoader{})

	e.Toggle(Directory(p(root, "D")))

	if got := e.DirectoryState(p(root, "D")); got != cache.All {
		t.Errorf("DirectoryState(D) = %v, want all", got)
	}
	if got := e.DirectoryState(p(root, "D/empty")); got != cache.None {
		t.Errorf("empty directory verdict = %v, want none", got)
	}
	if !e.IsChecked(p(root, "D/empty")) {
		t.Error("empty directory keeps its literal bit")
	}
}

func TestNotifications_CoalescedButDataApplied(t *testing.T) {
	root := buildTree(t, map[string]string{"a": "", "b": "", "c": "", "d": ""})
	e := newEngine(t, root, staticLoader{}, func(o *Options) { o.Debounce = 30 * time.Millisecond })

	var calls atomic.Int32
	e.Subscribe(func() { calls.Add(1) })

	for _, name := range []string{"a", "b", "c", "d"} {
		e.Toggle(File(p(root, name)))
		if !e.IsChecked(p(root, name)) {
			t.Fatalf("%s must be applied before any notification fires", name)
		}
	}

	select {
	case <-e.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
	if got := calls.Load(); got < 1 || got > 4 {
		t.Errorf("subscriber called %d times", got)
	}
}

func TestDirectoryState_ConcurrentQueriesAgree(t *testing.T) {
	files := map[string]string{}
	for _, d := range []string{"a", "b", "c", "d"} {
		for _, f := range []string{"1", "2", "3"} {
			files[d+"/"+f+".txt"] = f
		}
	}
	root := buildTree(t, files)
	e := newEngine(t, root, staticLoader{})
	e.Toggle(Directory(p(root, "a")))

	var wg sync.WaitGroup
	results := make([]cache.Verdict, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.DirectoryState(root)
		}()
	}
	wg.Wait()

	for i, v := range results {
		if v != cache.Partial {
			t.Errorf("query %d = %v, want partial", i, v)
		}
	}
}
