package tolerance

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func mustSet(t *testing.T, c *Curve, level int, fraction float64) {
	t.Helper()
	if err := c.Entries().Set(level, fraction); err != nil {
		t.Fatalf("Set(%d, %v): %v", level, fraction, err)
	}
}

func TestSetRatio_RejectsNonPositive(t *testing.T) {
	c := New()
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := c.SetRatio(r); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("SetRatio(%v): expected ErrInvalidArgument, got %v", r, err)
		}
	}
	if c.Ratio() != DefaultRatio {
		t.Fatalf("failed SetRatio changed ratio to %v", c.Ratio())
	}
}

func TestTableSet_RangeChecks(t *testing.T) {
	c := New()
	cases := []struct {
		level    int
		fraction float64
	}{
		{-1, 0.5},
		{256, 0.5},
		{10, -0.1},
		{10, 1.5},
		{10, math.NaN()},
	}
	for _, tc := range cases {
		if err := c.Entries().Set(tc.level, tc.fraction); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Set(%d, %v): expected ErrInvalidArgument, got %v", tc.level, tc.fraction, err)
		}
	}
	if c.Entries().Len() != 0 {
		t.Fatalf("rejected entries were applied: %v", c.Entries().Levels())
	}
	mustSet(t, c, 0, 0)
	mustSet(t, c, 255, 1)
}

func TestInterpolatedValue_RatiosAreIsolated(t *testing.T) {
	c := New()
	mustSet(t, c, 10, 0.2)

	if err := c.SetRatio(1.25); err != nil {
		t.Fatal(err)
	}
	if v := c.InterpolatedValue(50); !math.IsNaN(v) {
		t.Fatalf("expected NaN for unconfigured ratio, got %v", v)
	}

	if err := c.SetRatio(1.0); err != nil {
		t.Fatal(err)
	}
	if v := c.InterpolatedValue(50); v != 0.2 {
		t.Fatalf("expected 0.2, got %v", v)
	}
}

func TestInterpolatedValue_MostRecentLandmark(t *testing.T) {
	c := New()
	mustSet(t, c, 0, 0.1)
	mustSet(t, c, 100, 0.05)

	if v := c.InterpolatedValue(50); v != 0.1 {
		t.Fatalf("level 50: got %v want 0.1", v)
	}
	if v := c.InterpolatedValue(150); v != 0.05 {
		t.Fatalf("level 150: got %v want 0.05", v)
	}
	if v := c.InterpolatedValue(100); v != 0.05 {
		t.Fatalf("level 100: got %v want 0.05", v)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	c := New()
	mustSet(t, c, 10, 0.2)
	mustSet(t, c, 50, 0.6)
	if err := c.SetRatio(1.5); err != nil {
		t.Fatal(err)
	}
	mustSet(t, c, 3, 0.1+0.2) // not exactly representable in short decimal form

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := New()
	if err := loaded.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := loaded.InterpolatedValue(30); v != 0.2 {
		t.Fatalf("level 30: got %v want 0.2", v)
	}
	if v := loaded.InterpolatedValue(60); v != 0.6 {
		t.Fatalf("level 60: got %v want 0.6", v)
	}
	if v := loaded.InterpolatedValue(5); !math.IsNaN(v) {
		t.Fatalf("level 5: got %v want NaN", v)
	}

	if err := loaded.SetRatio(1.5); err != nil {
		t.Fatal(err)
	}
	if v := loaded.InterpolatedValue(3); v != 0.1+0.2 {
		t.Fatalf("full precision lost: got %v", v)
	}
	if got := loaded.Ratios(); len(got) != 2 || got[0] != 1.0 || got[1] != 1.5 {
		t.Fatalf("unexpected ratios: %v", got)
	}
}

func TestLoad_LegacySingleBlock(t *testing.T) {
	doc := `<?xml version="1.0"?>
<Tolerance>
  <Point level="0" fraction="0"/>
  <Point level="20" fraction="0.25"/>
</Tolerance>`
	c := New()
	if err := c.Load(strings.NewReader(doc)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := c.InterpolatedValue(40); v != 0.25 {
		t.Fatalf("got %v want 0.25", v)
	}

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<ToleranceCurves>") || !strings.Contains(buf.String(), `ratio="1"`) {
		t.Fatalf("save should emit the container form, got:\n%s", buf.String())
	}
}

func TestLoad_ErrorsLeaveCurveUnchanged(t *testing.T) {
	docs := map[string]string{
		"wrong root":       `<Curves><Tolerance ratio="1"/></Curves>`,
		"missing ratio":    `<ToleranceCurves><Tolerance><Point level="1" fraction="0.1"/></Tolerance></ToleranceCurves>`,
		"bad ratio":        `<ToleranceCurves><Tolerance ratio="0"/></ToleranceCurves>`,
		"level not int":    `<ToleranceCurves><Tolerance ratio="1"><Point level="1.5" fraction="0.1"/></Tolerance></ToleranceCurves>`,
		"level too large":  `<ToleranceCurves><Tolerance ratio="1"><Point level="256" fraction="0.1"/></Tolerance></ToleranceCurves>`,
		"fraction > 1":     `<ToleranceCurves><Tolerance ratio="1"><Point level="1" fraction="1.01"/></Tolerance></ToleranceCurves>`,
		"missing fraction": `<ToleranceCurves><Tolerance ratio="1"><Point level="1"/></Tolerance></ToleranceCurves>`,
		"duplicate ratio":  `<ToleranceCurves><Tolerance ratio="1"/><Tolerance ratio="1.0"/></ToleranceCurves>`,
		"not xml":          `this is not xml`,
		"empty":            ``,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			c := New()
			mustSet(t, c, 7, 0.7)
			err := c.Load(strings.NewReader(doc))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if v := c.InterpolatedValue(7); v != 0.7 {
				t.Fatalf("curve changed after failed load: %v", v)
			}
		})
	}
}

func TestLoad_RangeErrorIsAlsoInvalidArgument(t *testing.T) {
	doc := `<ToleranceCurves><Tolerance ratio="1"><Point level="300" fraction="0.1"/></Tolerance></ToleranceCurves>`
	err := New().Load(strings.NewReader(doc))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected the range error to be preserved, got %v", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	c := New()
	mustSet(t, c, 10, 0.2)

	cp := c.Clone()
	if err := cp.Entries().Set(10, 0.9); err != nil {
		t.Fatal(err)
	}
	if err := cp.SetRatio(2); err != nil {
		t.Fatal(err)
	}
	if v := c.InterpolatedValue(10); v != 0.2 {
		t.Fatalf("original mutated through clone: %v", v)
	}
	if c.Ratio() != 1 {
		t.Fatalf("original ratio changed: %v", c.Ratio())
	}
}

func TestSaveFile_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tolerance.xml")
	c := New()
	mustSet(t, c, 1, 0.01)
	if err := c.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	loaded := New()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if v := loaded.InterpolatedValue(200); v != 0.01 {
		t.Fatalf("got %v want 0.01", v)
	}
}

func TestSaveFile_IsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "tolerance.xml")
	if err := New().SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Fatalf("mode %v, want 0644", perm)
	}
}

func TestRatioBetween(t *testing.T) {
	r, err := RatioBetween(96, 144)
	if err != nil {
		t.Fatal(err)
	}
	if r != 1.5 {
		t.Fatalf("got %v want 1.5", r)
	}
	if _, err := RatioBetween(0, 96); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
