package master

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamusis/baseline/internal/dimension"
)

func writeImage(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSidecar_RoundTrip(t *testing.T) {
	m, err := dimension.Capture(dimension.Overrides{"Theme": "aero", "Dpi": "144"}, dimension.Dpi, dimension.Theme)
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeMetadata(m)
	if err != nil {
		t.Fatalf("EncodeMetadata: %v", err)
	}
	got, err := DecodeMetadata(data)
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if got.Value(dimension.Theme) != "aero" || got.Value(dimension.Dpi) != "144" {
		t.Fatalf("values lost: %v", got.Description())
	}
	crit := got.Criteria()
	if len(crit) != 2 || crit[0] != dimension.Dpi || crit[1] != dimension.Theme {
		t.Fatalf("criteria order lost: %v", crit)
	}
}

func TestDecodeMetadata_RejectsDescriptiveCriterion(t *testing.T) {
	if _, err := DecodeMetadata([]byte("description: {}\ncriteria: [User]\n")); err == nil {
		t.Fatal("expected error for non-indexable criterion")
	}
}

func TestDecodeMetadata_RejectsCaseDuplicateKeys(t *testing.T) {
	data := []byte("description:\n  theme: dark\n  Theme: light\ncriteria: [Theme]\n")
	if _, err := DecodeMetadata(data); err == nil {
		t.Fatal("expected error for keys differing only in case")
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in   string
		name string
		idx  int
		ok   bool
	}{
		{"button.0.png", "button", 0, true},
		{"/m/dialog.ok.12.jpg", "dialog.ok", 12, true},
		{"button.png", "", 0, false},
		{"button.x.png", "", 0, false},
		{".3.png", "", 0, false},
	}
	for _, c := range cases {
		name, idx, ok := SplitName(c.in)
		if name != c.name || idx != c.idx || ok != c.ok {
			t.Errorf("SplitName(%q) = %q,%d,%v want %q,%d,%v", c.in, name, idx, ok, c.name, c.idx, c.ok)
		}
	}
}

func TestSave_AssignsNextIndexAndDiscoverFindsIt(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "masters")
	src := filepath.Join(tmp, "capture.png")
	writeImage(t, src, "pixels")

	meta, err := dimension.Capture(dimension.Overrides{"Theme": "aero"}, dimension.Theme)
	if err != nil {
		t.Fatal(err)
	}

	var saved []string
	for i := 0; i < 2; i++ {
		p, err := Save(SaveOptions{Dir: dir, Name: "button", Source: src, Metadata: meta, LockTimeout: time.Second})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		saved = append(saved, p)
	}
	if filepath.Base(saved[0]) != "button.0.png" || filepath.Base(saved[1]) != "button.1.png" {
		t.Fatalf("unexpected names: %v", saved)
	}

	// An image with no sidecar is ignored by discovery.
	writeImage(t, filepath.Join(dir, "button.7.png"), "orphan")
	// Another test's master must not match.
	writeImage(t, filepath.Join(dir, "buttonbar.0.png"), "other")

	// Nor must a master of a longer dotted name.
	dark, err := Save(SaveOptions{Dir: dir, Name: "button.dark", Source: src, Metadata: meta, LockTimeout: time.Second})
	if err != nil {
		t.Fatalf("Save button.dark: %v", err)
	}
	if filepath.Base(dark) != "button.dark.0.png" {
		t.Fatalf("unexpected name %s", dark)
	}

	cands, err := DiscoverName(dir, DefaultPattern, "button")
	if err != nil {
		t.Fatalf("DiscoverName: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Path != saved[0] || cands[1].Path != saved[1] {
		t.Fatalf("candidates not in lexicographic order: %v, %v", cands[0].Path, cands[1].Path)
	}
	if !cands[0].Metadata.HasCriterion(dimension.Theme) {
		t.Fatal("criteria not read back from sidecar")
	}

	cands, err = DiscoverName(dir, DefaultPattern, "button.dark")
	if err != nil {
		t.Fatalf("DiscoverName: %v", err)
	}
	if len(cands) != 1 || cands[0].Path != dark {
		t.Fatalf("button.dark candidates = %v", cands)
	}

	names, groups := Group(mustDiscover(t, dir, PatternAll(DefaultPattern)))
	if len(names) != 2 || names[0] != "button" || names[1] != "button.dark" {
		t.Fatalf("group names = %v", names)
	}
	if len(groups["button"]) != 2 || len(groups["button.dark"]) != 1 {
		t.Fatalf("group sizes: button=%d button.dark=%d", len(groups["button"]), len(groups["button.dark"]))
	}
}

func mustDiscover(t *testing.T, dir, pattern string) []Candidate {
	t.Helper()
	cands, err := Discover(dir, pattern)
	if err != nil {
		t.Fatalf("Discover(%q): %v", pattern, err)
	}
	return cands
}

func TestPattern_EscapesGlobCharacters(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "capture.png")
	writeImage(t, src, "pixels")
	meta, err := dimension.Capture(dimension.Overrides{}, dimension.Theme)
	if err != nil {
		t.Fatal(err)
	}
	masters := filepath.Join(dir, "masters")
	for _, name := range []string{"a*", "ab", "q?x", "qzx", "[x]"} {
		if _, err := Save(SaveOptions{Dir: masters, Name: name, Source: src, Metadata: meta, LockTimeout: time.Second}); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}
	for _, name := range []string{"a*", "q?x", "[x]"} {
		cands, err := DiscoverName(masters, DefaultPattern, name)
		if err != nil {
			t.Fatalf("DiscoverName(%q): %v", name, err)
		}
		if len(cands) != 1 || filepath.Base(cands[0].Path) != name+".0.png" {
			t.Fatalf("DiscoverName(%q) = %v", name, cands)
		}
	}
}

func TestSave_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := Save(SaveOptions{Dir: dir, Name: "", Source: "a.png"}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := Save(SaveOptions{Dir: dir, Name: "a/b", Source: "a.png"}); err == nil {
		t.Fatal("expected error for name with separator")
	}
	if _, err := Save(SaveOptions{Dir: dir, Name: "a", Source: "a.gif"}); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	unlock, err := Lock(dir, time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := Lock(dir, 150*time.Millisecond); err == nil {
		t.Fatal("second Lock should time out while the first is held")
	}
	unlock()

	unlock2, err := Lock(dir, time.Second)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	unlock2()
}
