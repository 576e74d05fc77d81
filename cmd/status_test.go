package cmd

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kamusis/baseline/internal/config"
	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
)

// captureStdout returns what f writes to stdout.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestStatus_UsesConfiguredPattern(t *testing.T) {
	cfg := setupCheckHome(t)
	cfg.Pattern = "{name}.*.png"
	if err := config.Save(cfg); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "src.png")
	writePNG(t, src, color.White)
	plain, err := dimension.NewMetadata(map[string]string{"Theme": "light"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"login", "login.dark"} {
		if _, err := master.Save(master.SaveOptions{Dir: cfg.MastersDir, Name: name, Source: src, Metadata: plain, LockTimeout: time.Second}); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	// A better-scoring master outside the pattern must be ignored.
	themed, err := dimension.NewMetadata(map[string]string{"Theme": "light"}, []*dimension.Dimension{dimension.Theme})
	if err != nil {
		t.Fatal(err)
	}
	jpg := filepath.Join(cfg.MastersDir, "login.1.jpg")
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jpg, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := master.WriteMetadata(jpg, themed); err != nil {
		t.Fatal(err)
	}

	var runErr error
	out := captureStdout(t, func() { runErr = runCLI(t, "status") })
	if runErr != nil {
		t.Fatalf("status: %v", runErr)
	}
	for _, want := range []string{
		"=== Master Resolution ===",
		"[login] login.0.png (score 0 of 1 candidate(s))",
		"[login.dark] login.dark.0.png",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "login.1.jpg") {
		t.Fatalf("master outside the pattern was listed:\n%s", out)
	}
}
