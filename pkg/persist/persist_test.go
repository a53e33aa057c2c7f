package persist

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/nodetree"
)

var quiet = log.New(io.Discard)

// unwritable returns a candidate path that cannot be created, even by root,
// because its parent is a regular file.
func unwritable(t *testing.T) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(f, "store")
}

func canonical(t *testing.T, path string) string {
	t.Helper()
	p, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		override string
		want     []string
	}{
		{"", []string{SystemDir, "~/.local/share/visiongraph"}},
		{"/srv/vg", []string{"/srv/vg", SystemDir, "~/.local/share/visiongraph"}},
	}
	for _, tt := range tests {
		got := Candidates(tt.override)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Candidates(%q) mismatch (-want +got):\n%s", tt.override, diff)
		}
	}
}

func TestResolveSkipsUnwritable(t *testing.T) {
	good := filepath.Join(t.TempDir(), "store")

	root, ok := Resolve([]string{unwritable(t), good}, quiet)
	if !ok {
		t.Fatal("Resolve() should succeed")
	}
	if want := canonical(t, good); root != want {
		t.Errorf("Resolve() = %s, want %s", root, want)
	}

	for _, name := range []string{PreferencesFile, NodeTreeFile(0), NodeTreeFile(9)} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestResolveAllUnwritable(t *testing.T) {
	if _, ok := Resolve([]string{unwritable(t), unwritable(t)}, quiet); ok {
		t.Error("Resolve() should fail when no candidate is writable")
	}
}

func TestResolveKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Resolve([]string{dir}, quiet); !ok {
		t.Fatal("Resolve() failed")
	}
	path := filepath.Join(dir, NodeTreeFile(4))
	if err := os.WriteFile(path, []byte(`{"nodes": []}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := Resolve([]string{dir}, quiet); !ok {
		t.Fatal("second Resolve() failed")
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"nodes": []}` {
		t.Errorf("existing file rewritten: %q", data)
	}
}

func TestResolveExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	root, ok := Resolve([]string{"~/data"}, quiet)
	if !ok {
		t.Fatal("Resolve() failed")
	}
	if want := canonical(t, filepath.Join(home, "data")); root != want {
		t.Errorf("Resolve() = %s, want %s", root, want)
	}
}

func TestDisabledStore(t *testing.T) {
	s := Open(Options{Candidates: []string{unwritable(t)}, Logger: quiet})
	if s.Enabled() {
		t.Fatal("store should be disabled")
	}
	if s.Root() != "" {
		t.Errorf("Root() = %q, want empty", s.Root())
	}

	tree, ok := s.NodeTree()
	if !ok || tree == nil || len(tree.Nodes) != 0 {
		t.Errorf("NodeTree() = %v, %v; want empty default", tree, ok)
	}
	prefs, ok := s.Preferences()
	if !ok || prefs.Profile != 0 {
		t.Errorf("Preferences() = %v, %v; want default", prefs, ok)
	}
	if err := s.SaveNodeTree(nodetree.New()); err != nil {
		t.Errorf("SaveNodeTree() error: %v", err)
	}
	if err := s.SetProfile(3); err != nil {
		t.Errorf("SetProfile() error: %v", err)
	}
	if s.Profile() != 3 {
		t.Errorf("Profile() = %d, want 3", s.Profile())
	}
}

func TestNodeTreeSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s := Open(Options{Candidates: []string{dir}, Logger: quiet})
	if !s.Enabled() {
		t.Fatal("store should be enabled")
	}

	// Freshly created files read as empty documents.
	tree, ok := s.NodeTree()
	if !ok || len(tree.Nodes) != 0 {
		t.Fatalf("NodeTree() = %v, %v; want empty", tree, ok)
	}

	doc := &nodetree.NodeTree{Nodes: []nodetree.Node{{
		Type:     "math/Constant",
		ID:       "k",
		Settings: map[string]any{"value": 2.0},
		Pos:      []float64{1, 2},
		Inputs:   map[string]nodetree.Input{},
	}}}
	if err := s.SaveNodeTree(doc); err != nil {
		t.Fatalf("SaveNodeTree() error: %v", err)
	}

	s2 := Open(Options{Candidates: []string{dir}, Logger: quiet})
	got, ok := s2.NodeTree()
	if !ok {
		t.Fatal("NodeTree() unavailable")
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("reloaded tree mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeTreeCache(t *testing.T) {
	dir := t.TempDir()
	s := Open(Options{Candidates: []string{dir}, Logger: quiet})
	first, _ := s.NodeTree()

	path := filepath.Join(canonical(t, dir), NodeTreeFile(0))
	if err := os.WriteFile(path, []byte(`{"nodes": [{"id": "x", "type": "math/Constant"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if cached, _ := s.NodeTree(); len(cached.Nodes) != len(first.Nodes) {
		t.Errorf("NodeTree() = %d nodes, want the cached %d", len(cached.Nodes), len(first.Nodes))
	}

	s.Invalidate()
	fresh, ok := s.NodeTree()
	if !ok || len(fresh.Nodes) != 1 {
		t.Errorf("NodeTree() after Invalidate = %v, %v; want the file contents", fresh, ok)
	}
}

func TestNodeTreeCacheIsolated(t *testing.T) {
	s := Open(Options{Candidates: []string{t.TempDir()}, Logger: quiet})

	doc := &nodetree.NodeTree{Nodes: []nodetree.Node{{
		Type:     "math/Constant",
		ID:       "k",
		Settings: map[string]any{"value": 2.0},
		Pos:      []float64{1, 2},
		Inputs:   map[string]nodetree.Input{},
	}}}
	if err := s.SaveNodeTree(doc); err != nil {
		t.Fatalf("SaveNodeTree() error: %v", err)
	}
	doc.Nodes[0].Settings["value"] = 9.0
	doc.Nodes[0].Pos[0] = 100

	got, _ := s.NodeTree()
	got.Nodes[0].ID = "changed"
	got.Nodes = append(got.Nodes, nodetree.Node{Type: "math/Constant", ID: "extra"})

	again, _ := s.NodeTree()
	want := []nodetree.Node{{
		Type:     "math/Constant",
		ID:       "k",
		Settings: map[string]any{"value": 2.0},
		Pos:      []float64{1, 2},
		Inputs:   map[string]nodetree.Input{},
	}}
	if diff := cmp.Diff(want, again.Nodes); diff != "" {
		t.Errorf("cached tree changed by callers (-want +got):\n%s", diff)
	}
}

func TestSetProfilePreferencesWriteFails(t *testing.T) {
	dir := t.TempDir()
	s := Open(Options{Candidates: []string{dir}, Logger: quiet})
	root := canonical(t, dir)

	data := []byte(`{"nodes": [{"id": "k", "type": "math/Constant"}]}`)
	if err := os.WriteFile(filepath.Join(root, NodeTreeFile(3)), data, 0644); err != nil {
		t.Fatal(err)
	}

	// A non-empty directory cannot be replaced by the atomic rename.
	prefs := filepath.Join(root, PreferencesFile)
	if err := os.Remove(prefs); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(prefs, "keep"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := s.SetProfile(3); err != nil {
		t.Fatalf("SetProfile() error = %v, want nil", err)
	}
	if s.Profile() != 3 {
		t.Errorf("Profile() = %d, want 3", s.Profile())
	}
	if p, ok := s.Preferences(); !ok || p.Profile != 3 {
		t.Errorf("Preferences() = %v, %v; want profile 3", p, ok)
	}
	tree, ok := s.NodeTree()
	if !ok || len(tree.Nodes) != 1 || tree.Nodes[0].ID != "k" {
		t.Errorf("NodeTree() = %+v, %v; want profile 3's document", tree, ok)
	}
}

func TestMalformedDocumentsUseDefaults(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Resolve([]string{dir}, quiet); !ok {
		t.Fatal("Resolve() failed")
	}
	root := canonical(t, dir)
	files := map[string]string{
		PreferencesFile: `{"profile": 42}`,
		NodeTreeFile(0): `{"nodes": [`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := Open(Options{Candidates: []string{dir}, Logger: quiet})
	if s.Profile() != 0 {
		t.Errorf("Profile() = %d, want 0", s.Profile())
	}
	prefs, ok := s.Preferences()
	if !ok || prefs.Profile != 0 {
		t.Errorf("Preferences() = %v, %v; want default", prefs, ok)
	}
	tree, ok := s.NodeTree()
	if !ok || len(tree.Nodes) != 0 {
		t.Errorf("NodeTree() = %v, %v; want empty default", tree, ok)
	}
}

func TestUnreadableDocumentIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	s := Open(Options{Candidates: []string{dir}, Logger: quiet})

	path := filepath.Join(canonical(t, dir), NodeTreeFile(2))
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	if err := s.SetProfile(2); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}
	if tree, ok := s.NodeTree(); ok || tree != nil {
		t.Errorf("NodeTree() = %v, %v; want unavailable", tree, ok)
	}
	if err := s.SaveNodeTree(nodetree.New()); !apperr.Is(err, apperr.ErrCodeUnavailable) {
		t.Errorf("SaveNodeTree() error = %v, want UNAVAILABLE", err)
	}
}

func TestSetProfile(t *testing.T) {
	dir := t.TempDir()
	s := Open(Options{Candidates: []string{dir}, Logger: quiet})

	if err := s.SaveNodeTree(&nodetree.NodeTree{Nodes: []nodetree.Node{{Type: "math/Constant", ID: "zero"}}}); err != nil {
		t.Fatalf("SaveNodeTree() error: %v", err)
	}
	if err := s.SetProfile(5); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}
	if tree, _ := s.NodeTree(); len(tree.Nodes) != 0 {
		t.Errorf("profile 5 should start empty, got %d nodes", len(tree.Nodes))
	}

	reopened := Open(Options{Candidates: []string{dir}, Logger: quiet})
	if reopened.Profile() != 5 {
		t.Errorf("reopened Profile() = %d, want 5", reopened.Profile())
	}

	if err := s.SetProfile(0); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}
	if tree, _ := s.NodeTree(); len(tree.Nodes) != 1 || tree.Nodes[0].ID != "zero" {
		t.Errorf("profile 0 tree = %+v, want the saved node", tree)
	}

	for _, n := range []int{-1, 10} {
		if err := s.SetProfile(n); !apperr.Is(err, apperr.ErrCodeInvalidProfile) {
			t.Errorf("SetProfile(%d) error = %v, want INVALID_PROFILE", n, err)
		}
	}
	if s.Profile() != 0 {
		t.Errorf("invalid SetProfile changed profile to %d", s.Profile())
	}
}

func TestSavePreferencesRejectsInvalid(t *testing.T) {
	s := NewStore(nil, quiet)
	if err := s.SavePreferences(&Preferences{Profile: 11}); !apperr.Is(err, apperr.ErrCodeInvalidProfile) {
		t.Errorf("SavePreferences() error = %v, want INVALID_PROFILE", err)
	}
}

func TestFileBackend(t *testing.T) {
	b := NewFileBackend(t.TempDir())

	if _, err := b.Read("missing.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read(missing) error = %v, want ErrNotExist", err)
	}
	if err := b.Write("nested/doc.json", []byte("one")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := b.Write("nested/doc.json", []byte("two")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data, err := b.Read("nested/doc.json")
	if err != nil || string(data) != "two" {
		t.Errorf("Read() = %q, %v; want two", data, err)
	}

	entries, _ := os.ReadDir(filepath.Join(b.Root(), "nested"))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestNullBackend(t *testing.T) {
	var b NullBackend
	if _, err := b.Read("x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Read() error = %v, want ErrDisabled", err)
	}
	if err := b.Write("x", []byte("y")); err != nil {
		t.Errorf("Write() error: %v", err)
	}
}
